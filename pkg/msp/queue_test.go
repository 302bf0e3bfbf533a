package msp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recvResult(t *testing.T, req *Request) Result {
	select {
	case res, ok := <-req.ResultChan():
		require.True(t, ok, "result chan closed without result")
		return res
	case <-time.After(time.Second):
		require.FailNow(t, "no result")
	}
	return Result{}
}

func requirePending(t *testing.T, req *Request) {
	select {
	case res := <-req.ResultChan():
		require.FailNow(t, "unexpected result", "%+v", res)
	default:
	}
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	req1 := q.Add(CmdStatus, time.Second)
	req2 := q.Add(CmdStatus, time.Second)
	require.Equal(t, 2, q.Len())

	require.True(t, q.Resolve(response(V1, CmdStatus, 1)))
	res := recvResult(t, req1)
	require.NoError(t, res.Err)
	require.Equal(t, CmdStatus, res.Code)
	require.Equal(t, []byte{1}, res.Data)
	requirePending(t, req2)

	require.True(t, q.Resolve(response(V1, CmdStatus, 2)))
	res = recvResult(t, req2)
	require.NoError(t, res.Err)
	require.Equal(t, []byte{2}, res.Data)
	require.Equal(t, 0, q.Len())

	_, ok := <-req1.ResultChan()
	require.False(t, ok)
}

func TestQueueCodesIndependent(t *testing.T) {
	q := NewQueue()
	reqA := q.Add(CmdAttitude, time.Second)
	reqB := q.Add(CmdAltitude, time.Second)

	require.True(t, q.Resolve(response(V1, CmdAltitude, 7)))
	res := recvResult(t, reqB)
	require.Equal(t, []byte{7}, res.Data)
	requirePending(t, reqA)
	require.Equal(t, 1, q.Len())

	require.False(t, q.Resolve(response(V1, CmdAltitude)))
	require.True(t, q.Resolve(response(V1, CmdAttitude, 8)))
	res = recvResult(t, reqA)
	require.Equal(t, []byte{8}, res.Data)
}

func TestQueueTimeout(t *testing.T) {
	q := NewQueue()
	timeout := 30 * time.Millisecond
	start := time.Now()
	req := q.Add(CmdStatus, timeout)
	res := recvResult(t, req)
	require.True(t, time.Since(start) >= timeout)
	require.Error(t, res.Err)
	require.True(t, errors.Is(res.Err, ErrTimeout))
	require.Equal(t, &TimeoutError{Code: CmdStatus}, res.Err)
	require.Equal(t, uint64(1), q.Expired())
	require.Equal(t, 0, q.Len())

	// stale response is ignored.
	require.False(t, q.Resolve(response(V1, CmdStatus, 1)))
	_, ok := <-req.ResultChan()
	require.False(t, ok)
}

func TestQueueTimeoutKeepsOrder(t *testing.T) {
	q := NewQueue()
	expiring := q.Add(CmdRC, 10*time.Millisecond)
	waiting := q.Add(CmdRC, time.Second)
	res := recvResult(t, expiring)
	require.True(t, errors.Is(res.Err, ErrTimeout))

	require.True(t, q.Resolve(response(V1, CmdRC, 3)))
	res = recvResult(t, waiting)
	require.NoError(t, res.Err)
	require.Equal(t, []byte{3}, res.Data)
}

func TestQueueFail(t *testing.T) {
	q := NewQueue()
	req := q.Add(CmdStatus, time.Second)
	failure := errors.New("broken")
	require.True(t, q.Fail(req, failure))
	require.False(t, q.Fail(req, failure))
	res := recvResult(t, req)
	require.Equal(t, failure, res.Err)
	require.False(t, q.Resolve(response(V1, CmdStatus)))
	require.Equal(t, uint64(0), q.Expired())
}

func TestQueueDefaultTimeout(t *testing.T) {
	q := NewQueue()
	start := time.Now()
	res := recvResult(t, q.Add(CmdStatus, 0))
	require.True(t, errors.Is(res.Err, ErrTimeout))
	require.True(t, time.Since(start) >= DefaultTimeout)
}

func TestRequestWait(t *testing.T) {
	q := NewQueue()
	req := q.Add(CmdName, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := req.Wait(ctx)
	require.Equal(t, context.Canceled, err)

	require.True(t, q.Resolve(response(V1, CmdName, 'f', 'c')))
	data, err := req.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("fc"), data)
}
