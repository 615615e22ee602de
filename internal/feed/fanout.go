package feed

import "github.com/yanun0323/logs"

// fanout is an ordered observer list. The engine's mutex serializes all access,
// including emit, so a completed unsubscribe guarantees no further deliveries.
type fanout[T any] struct {
	nextID uint64
	subs   []fanoutSub[T]
}

type fanoutSub[T any] struct {
	id uint64
	fn func(T)
}

func (f *fanout[T]) add(fn func(T)) uint64 {
	f.nextID++
	f.subs = append(f.subs, fanoutSub[T]{id: f.nextID, fn: fn})
	return f.nextID
}

func (f *fanout[T]) remove(id uint64) {
	for i, s := range f.subs {
		if s.id == id {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}

// emit invokes every handler in registration order. A panicking handler is
// isolated so the remaining handlers still receive the value.
func (f *fanout[T]) emit(v T) {
	for _, s := range f.subs {
		invoke(s.fn, v)
	}
}

func invoke[T any](fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("feed: subscriber panic recovered: %+v", r)
		}
	}()
	fn(v)
}
