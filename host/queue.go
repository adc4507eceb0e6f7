package host

import "github.com/razvnane/dqcsim/arb"

// queues holds the two FIFO message channels between host and accelerator
// described in spec.md §3: send() appends to hostToAccel, and each yield
// drains the full current contents of hostToAccel to the frontend while
// appending whatever the frontend produced to accelToHost (recv() then
// drains that in turn). Order is preserved in both directions and nothing
// is ever dropped or reordered.
type queues struct {
	hostToAccel []arb.Data
	accelToHost []arb.Data
}

func (q *queues) send(d arb.Data) {
	q.hostToAccel = append(q.hostToAccel, d)
}

// drainOutgoing removes and returns every message queued since the last
// yield, in order.
func (q *queues) drainOutgoing() []arb.Data {
	if len(q.hostToAccel) == 0 {
		return nil
	}
	out := q.hostToAccel
	q.hostToAccel = nil
	return out
}

func (q *queues) pushIncoming(msgs []arb.Data) {
	q.accelToHost = append(q.accelToHost, msgs...)
}

// recv pops the oldest message sent by the accelerator, if any is
// available without a yield.
func (q *queues) recv() (arb.Data, bool) {
	if len(q.accelToHost) == 0 {
		return arb.Data{}, false
	}
	d := q.accelToHost[0]
	q.accelToHost = q.accelToHost[1:]
	return d, true
}
