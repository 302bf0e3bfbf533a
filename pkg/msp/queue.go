package msp

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTimeout is the default time to wait for a response.
const DefaultTimeout = 200 * time.Millisecond

// Result is the result of a request.
type Result struct {
	Err  error
	Code Code
	Data []byte
}

// Request represents a pending request waiting for a response.
type Request struct {
	code   Code
	elem   *list.Element
	timer  *time.Timer
	result chan Result
}

func newRequest(code Code) *Request {
	return &Request{code: code, result: make(chan Result, 1)}
}

func failedRequest(code Code, err error) *Request {
	req := newRequest(code)
	req.settle(Result{Err: err, Code: code})
	return req
}

// Code returns the command code the request waits for.
func (r *Request) Code() Code {
	return r.code
}

// ResultChan returns the chan to retrieve result.
// Exactly one Result is delivered, then the chan is closed.
func (r *Request) ResultChan() <-chan Result {
	return r.result
}

// Wait blocks until the request is settled or ctx is done.
// Giving up on ctx doesn't cancel the request, it still settles
// by a response or timeout.
func (r *Request) Wait(ctx context.Context) ([]byte, error) {
	select {
	case res := <-r.result:
		return res.Data, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Request) settle(res Result) {
	r.result <- res
	close(r.result)
}

// Queue correlates received frames to pending requests.
// Requests with the same code are matched in FIFO order.
type Queue struct {
	expired uint64

	pending map[Code]*list.List
	lock    sync.Mutex
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{pending: make(map[Code]*list.List)}
}

// Add registers a request and starts its timer.
func (q *Queue) Add(code Code, timeout time.Duration) *Request {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	req := newRequest(code)
	q.lock.Lock()
	defer q.lock.Unlock()
	lst := q.pending[code]
	if lst == nil {
		lst = list.New()
		q.pending[code] = lst
	}
	req.elem = lst.PushBack(req)
	req.timer = time.AfterFunc(timeout, func() { q.expire(req) })
	return req
}

// Resolve settles the oldest request waiting for the frame's code.
// It returns false if no request is waiting.
func (q *Queue) Resolve(f *Frame) bool {
	q.lock.Lock()
	var req *Request
	if lst := q.pending[f.Code]; lst != nil {
		req = lst.Front().Value.(*Request)
		q.remove(req)
	}
	q.lock.Unlock()
	if req == nil {
		return false
	}
	req.timer.Stop()
	req.settle(Result{Code: f.Code, Data: f.Payload})
	return true
}

// Fail settles a pending request with err.
// It returns false if the request was already settled.
func (q *Queue) Fail(req *Request, err error) bool {
	q.lock.Lock()
	removed := q.remove(req)
	q.lock.Unlock()
	if !removed {
		return false
	}
	req.timer.Stop()
	req.settle(Result{Err: err, Code: req.code})
	return true
}

// Len returns the number of pending requests.
func (q *Queue) Len() (n int) {
	q.lock.Lock()
	defer q.lock.Unlock()
	for _, lst := range q.pending {
		n += lst.Len()
	}
	return
}

// Expired returns the number of requests settled by timeout.
func (q *Queue) Expired() uint64 {
	return atomic.LoadUint64(&q.expired)
}

func (q *Queue) expire(req *Request) {
	q.lock.Lock()
	removed := q.remove(req)
	q.lock.Unlock()
	if !removed {
		return
	}
	atomic.AddUint64(&q.expired, 1)
	req.settle(Result{Err: &TimeoutError{Code: req.code}, Code: req.code})
}

// remove must be called with lock held.
func (q *Queue) remove(req *Request) bool {
	if req.elem == nil {
		return false
	}
	lst := q.pending[req.code]
	lst.Remove(req.elem)
	req.elem = nil
	if lst.Len() == 0 {
		delete(q.pending, req.code)
	}
	return true
}
