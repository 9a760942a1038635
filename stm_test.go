package stm

import (
	"math/rand"
	"sync"
	"testing"
)

func TestCounter(t *testing.T) {
	rt := New()
	sum := NewVar(0)

	var wg sync.WaitGroup
	const N = 10
	const M = 10000
	wg.Add(N)
	for x := 0; x < N; x++ {
		go func() {
			defer wg.Done()
			for i := 0; i < M; i++ {
				err := Atomically(rt, func(tx *Tx) error {
					v, err := tx.Load(sum)
					if err != nil {
						return err
					}
					return tx.Store(sum, v+1)
				})
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	var total uint64
	if err := Atomically(rt, func(tx *Tx) error {
		v, err := tx.Load(sum)
		if err != nil {
			return err
		}
		total = v
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if total != M*N {
		t.Errorf("expected %d, got %d", M*N, total)
	}
}

func TestBankTransfer(t *testing.T) {
	rt := New()
	var accounts [10]*Var
	for i := range accounts {
		accounts[i] = NewVar(100)
	}

	const N = 24
	const M = 2000
	var wg sync.WaitGroup
	wg.Add(N)
	for i := 0; i < N; i++ {
		go func() {
			defer wg.Done()
			for x := 0; x < M; x++ {
				from := rand.Intn(10)
				to := rand.Intn(10)
				if from == to {
					continue
				}
				err := Atomically(rt, func(tx *Tx) error {
					vf, err := tx.Load(accounts[from])
					if err != nil {
						return err
					}
					if vf == 0 {
						return nil
					}
					amount := uint64(rand.Int63n(int64(vf)))
					vt, err := tx.Load(accounts[to])
					if err != nil {
						return err
					}
					if err := tx.Store(accounts[from], vf-amount); err != nil {
						return err
					}
					return tx.Store(accounts[to], vt+amount)
				})
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	var total uint64
	if err := Atomically(rt, func(tx *Tx) error {
		total = 0
		for _, a := range accounts {
			v, err := tx.Load(a)
			if err != nil {
				return err
			}
			total += v
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if total != 1000 {
		t.Errorf("expected conserved total of 1000, got %d", total)
	}
}

func TestHeapInvariant(t *testing.T) {
	rt := New()
	var heap [100]*Var
	for i := range heap {
		heap[i] = NewVar(0)
	}
	end := NewVar(0)

	heapAppend := func(tx *Tx, x uint64) error {
		e, err := tx.Load(end)
		if err != nil {
			return err
		}
		curr := e
		parent := curr / 2
		for curr != 0 {
			pv, err := tx.Load(heap[parent])
			if err != nil {
				return err
			}
			if pv <= x {
				break
			}
			if err := tx.Store(heap[curr], pv); err != nil {
				return err
			}
			curr = parent
			parent = parent / 2
		}
		if err := tx.Store(heap[curr], x); err != nil {
			return err
		}
		return tx.Store(end, e+1)
	}

	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				x := uint64(rand.Intn(500))
				if err := Atomically(rt, func(tx *Tx) error {
					return heapAppend(tx, x)
				}); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if err := Atomically(rt, func(tx *Tx) error {
		for i := 0; i < 100; i++ {
			val, err := tx.Load(heap[i])
			if err != nil {
				return err
			}
			if i*2 < 100 {
				left, err := tx.Load(heap[i*2])
				if err != nil {
					return err
				}
				if val > left {
					t.Error("heap invariant violated on left child")
				}
			}
			if i*2+1 < 100 {
				right, err := tx.Load(heap[i*2+1])
				if err != nil {
					return err
				}
				if val > right {
					t.Error("heap invariant violated on right child")
				}
			}
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestAPI(t *testing.T) {
	rt := New()
	v := NewVar(0)
	err := Atomically(rt, func(tx *Tx) error {
		if _, err := tx.Load(v); err != nil {
			return err
		}
		if err := tx.Store(v, 42); err != nil {
			return err
		}
		res, err := tx.Load(v)
		if err != nil {
			return err
		}
		if res != 42 {
			t.Fail()
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestWriteSkew(t *testing.T) {
	rt := New()
	a := NewVar(1)
	b := NewVar(2)

	var wg sync.WaitGroup
	wg.Add(2)
	ch := make(chan struct{})
	go func() {
		defer wg.Done()
		Atomically(rt, func(tx *Tx) error {
			<-ch
			va, err := tx.Load(a)
			if err != nil {
				return err
			}
			if va == 1 {
				return tx.Store(b, 666)
			}
			return nil
		})
	}()

	go func() {
		defer wg.Done()
		Atomically(rt, func(tx *Tx) error {
			<-ch
			vb, err := tx.Load(b)
			if err != nil {
				return err
			}
			if vb == 2 {
				return tx.Store(a, 42)
			}
			return nil
		})
	}()
	close(ch)
	wg.Wait()

	// The result should be either a=1,b=666 or a=42,b=2; a=42,b=666 would
	// be a write skew anomaly that commit-time read-set validation should
	// never permit.
	if err := Atomically(rt, func(tx *Tx) error {
		va, err := tx.Load(a)
		if err != nil {
			return err
		}
		vb, err := tx.Load(b)
		if err != nil {
			return err
		}
		if va == 42 && vb == 666 {
			t.Fail()
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestRunReusesDescriptor(t *testing.T) {
	rt := New()
	tx := rt.NewTx()
	defer rt.Delete(tx)

	v := NewVar(0)
	for i := uint64(1); i <= 5; i++ {
		err := Run(tx, func(tx *Tx) error {
			cur, err := tx.Load(v)
			if err != nil {
				return err
			}
			return tx.Store(v, cur+1)
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	var got uint64
	if err := Atomically(rt, func(tx *Tx) error {
		v2, err := tx.Load(v)
		if err != nil {
			return err
		}
		got = v2
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
}

func TestExplicitAbort(t *testing.T) {
	rt := New()
	tx := rt.NewTx()
	defer rt.Delete(tx)

	v := NewVar(10)
	if err := tx.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := tx.Store(v, 999); err != nil {
		t.Fatal(err)
	}
	if err := tx.Abort(); err != nil {
		t.Fatal(err)
	}
	if got := v.peek(); got != 10 {
		t.Errorf("expected abort to leave value untouched, got %d", got)
	}
}

func BenchmarkReadOnly(b *testing.B) {
	rt := New()
	end := NewVar(42)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Atomically(rt, func(tx *Tx) error {
			_, err := tx.Load(end)
			return err
		})
	}
}

func BenchmarkWriteRead(b *testing.B) {
	rt := New()
	end := NewVar(42)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Atomically(rt, func(tx *Tx) error {
			if err := tx.Store(end, 666); err != nil {
				return err
			}
			_, err := tx.Load(end)
			return err
		})
	}
}
