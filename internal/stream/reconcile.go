package stream

// Messages builds the user-visible notification for each transition kind.
// internal/text provides the production implementation; tests use fakes.
type Messages interface {
	StreamStart(s Stream) Notification
	StreamTitleUpdate(s Stream) Notification
	StreamGameUpdate(s Stream) Notification
	StreamEnd(s Stream) Notification
}

// RecordSet answers whether a channel is on the recording allow-list.
type RecordSet interface {
	ShouldRecord(loginNormalized string) bool
}

// RecordNone is a RecordSet matching nothing.
type RecordNone struct{}

func (RecordNone) ShouldRecord(string) bool { return false }

// Result is everything one reconciliation produced.
type Result struct {
	Next          []Stream
	Notifications []Notification
	ToStart       []Stream // channels whose recording should begin
	ToStop        []Stream // channels whose recording should end
}

// Reconcile diffs the previous snapshot against a freshly polled one.
//
// It never mutates prev; Next is assembled only from channels the poll
// confirmed, always carrying the fresh entry so title/game/duration stay
// current. A title change suppresses a simultaneous game change for the
// same channel in the same tick. Channels gone from the poll are reported
// in reverse insertion order of prev.
func Reconcile(prev, polled []Stream, rec RecordSet, msg Messages) Result {
	var res Result
	res.Next = make([]Stream, 0, len(polled))

	byLogin := make(map[string]int, len(prev))
	for i, s := range prev {
		byLogin[s.LoginNormalized] = i
	}

	for _, online := range polled {
		idx, known := byLogin[online.LoginNormalized]
		if !known {
			res.Notifications = append(res.Notifications, msg.StreamStart(online))
			res.Next = append(res.Next, online)
			if rec.ShouldRecord(online.LoginNormalized) {
				res.ToStart = append(res.ToStart, online)
			}
			continue
		}

		was := prev[idx]
		switch {
		case online.Title != was.Title:
			res.Notifications = append(res.Notifications, msg.StreamTitleUpdate(online))
		case online.Game != was.Game:
			res.Notifications = append(res.Notifications, msg.StreamGameUpdate(online))
		}
		res.Next = append(res.Next, online)
	}

	alive := make(map[string]struct{}, len(polled))
	for _, s := range polled {
		alive[s.LoginNormalized] = struct{}{}
	}

	for i := len(prev) - 1; i >= 0; i-- {
		gone := prev[i]
		if _, ok := alive[gone.LoginNormalized]; ok {
			continue
		}
		res.Notifications = append(res.Notifications, msg.StreamEnd(gone))
		if rec.ShouldRecord(gone.LoginNormalized) {
			res.ToStop = append(res.ToStop, gone)
		}
	}

	return res
}
