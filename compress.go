package succession

// DropAll discards all history; new iterators see only values pushed after their creation.
func DropAll[T any]() CompressFunc[T] {
	return func([]T) []T {
		return nil
	}
}

// KeepLast retains the newest n values.
func KeepLast[T any](n int) CompressFunc[T] {
	if n < 0 {
		panic("invalid keep count")
	}
	return func(items []T) []T {
		if len(items) <= n {
			return items
		}
		// copy so the dropped prefix of the backing array can be collected
		return append([]T(nil), items[len(items)-n:]...)
	}
}

// Reduce folds all history into a single value with fn, oldest first.
func Reduce[T any](fn func(acc, v T) T) CompressFunc[T] {
	return func(items []T) []T {
		if len(items) == 0 {
			return nil
		}
		acc := items[0]
		for _, v := range items[1:] {
			acc = fn(acc, v)
		}
		return []T{acc}
	}
}
