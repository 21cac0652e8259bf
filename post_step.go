package rigid

// PostStepFunc is a callback queued with Space.AddPostStepCallback.
type PostStepFunc func(space *Space, key any, data any)

type postStepCallback struct {
	callback PostStepFunc
	key      any
	data     any
}

// PostStepDoNothing is a post-step callback that does nothing. Queue it to
// reserve a key.
func PostStepDoNothing(space *Space, key, data any) {}

func (s *Space) postStepCallback(key any) *postStepCallback {
	for _, callback := range s.postStepCallbacks {
		if callback != nil && callback.key == key {
			return callback
		}
	}
	return nil
}

// AddPostStepCallback defines a callback to be run just before the next (or
// current) call to Step returns, or when the current query or traversal ends.
//
// Post-step callbacks are the only place where a collision handler or visitor
// may add and remove objects. Only one callback runs per key value, so an
// object can not be removed twice: registering a second callback for the same
// key is a no-op and returns false. A nil key is never deduplicated. key must
// be comparable.
func (s *Space) AddPostStepCallback(key any, f PostStepFunc, data any) bool {
	if key != nil && s.postStepCallback(key) != nil {
		return false
	}
	if f == nil {
		f = PostStepDoNothing
	}
	s.postStepCallbacks = append(s.postStepCallbacks, &postStepCallback{
		callback: f,
		key:      key,
		data:     data,
	})
	return true
}

// runPostStepCallbacks drains the queue. Callbacks queued by a running
// callback run in the same drain.
func (s *Space) runPostStepCallbacks() {
	if s.runningPostStep {
		return
	}
	s.runningPostStep = true
	defer func() { s.runningPostStep = false }()

	for i := 0; i < len(s.postStepCallbacks); i++ {
		callback := s.postStepCallbacks[i]
		f := callback.callback

		// Mark the func as nil in case it queues the same key again.
		callback.callback = nil

		if f != nil {
			s.protect("post-step", func() {
				f(s, callback.key, callback.data)
			})
		}
	}

	clear(s.postStepCallbacks)
	s.postStepCallbacks = s.postStepCallbacks[:0]
}
