package record

import "time"

// Cursor is the single shared record tracking the next unissued id per
// allocation family, stamped with the claim of the writer holding it.
type Cursor struct {
	Owner     string           `json:"owner,omitempty"`
	Token     string           `json:"token,omitempty"`
	ClaimedAt time.Time        `json:"claimed_at,omitempty"`
	Next      map[Family]int64 `json:"next,omitempty"`
}

// NextID returns the next unissued id recorded for family f, or zero when
// the cursor has never issued for f.
func (c Cursor) NextID(f Family) int64 {
	return c.Next[f]
}

// SetNext records the next unissued id for family f.
func (c *Cursor) SetNext(f Family, next int64) {
	if c.Next == nil {
		c.Next = map[Family]int64{}
	}
	c.Next[f] = next
}

// Clone returns an independent copy of the cursor.
func (c Cursor) Clone() Cursor {
	out := c
	if c.Next != nil {
		out.Next = make(map[Family]int64, len(c.Next))
		for f, v := range c.Next {
			out.Next[f] = v
		}
	}
	return out
}

// CursorClaim identifies one writer's attempt to hold the cursor.
type CursorClaim struct {
	Owner string    `json:"owner"`
	Token string    `json:"token"`
	At    time.Time `json:"at"`
}

// IDRange is a contiguous run of reserved ids.
type IDRange struct {
	First int64
	Count int
}

// Last returns the final id of the range.
func (r IDRange) Last() int64 { return r.First + int64(r.Count) - 1 }

// IDs expands the range into a slice.
func (r IDRange) IDs() []int64 {
	out := make([]int64, r.Count)
	for i := range out {
		out[i] = r.First + int64(i)
	}
	return out
}
