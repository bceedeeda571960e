package buffer

// Unbounded creates a channel buffer that grows as needed.
// It returns a write-only channel to feed data in, and a read-only channel to read data out.
//
// initialCap: The starting size of the backing slice.
// hardLimit: The maximum number of items to buffer before dropping the oldest.
// onDrop: Called (from the buffer goroutine) with the running drop count
// each time an item is discarded. May be nil.
//
// Closing in flushes whatever is queued and then closes out.
//
// Usage:
//
//	in, out := buffer.Unbounded[string](100, 50000, nil)
//	in <- "hello"
//	msg := <-out
func Unbounded[T any](initialCap, hardLimit int, onDrop func(dropped int)) (chan<- T, <-chan T) {
	in := make(chan T, 10)  // Small input buffer to reduce context switching
	out := make(chan T, 10) // Small output buffer

	go func() {
		defer close(out)

		queue := make([]T, 0, initialCap)
		dropped := 0

		for {
			var next T
			var downstream chan T

			// Enable the 'out' case only if we have data to send.
			if len(queue) > 0 {
				next = queue[0]
				downstream = out
			}

			select {
			case val, ok := <-in:
				if !ok {
					for _, item := range queue {
						out <- item
					}
					return
				}

				// Safety valve for a consumer that stopped reading.
				if len(queue) >= hardLimit {
					var zero T
					queue[0] = zero
					queue = queue[1:]
					dropped++
					if onDrop != nil {
						onDrop(dropped)
					}
				}

				queue = append(queue, val)

			case downstream <- next:
				var zero T
				queue[0] = zero
				queue = queue[1:]
			}
		}
	}()

	return in, out
}
