package imap

// Window is an inclusive, 1-based, ascending sequence-number range.
type Window struct {
	Start uint32
	End   uint32
}

func (w Window) Count() int {
	return int(w.End-w.Start) + 1
}

// ComputeWindow derives the sequence range for a page of limit messages at
// offset pages-from-the-newest. The store numbers messages ascending, so
// the newest page sits at the top of the range. Returns ok=false when the
// mailbox is empty or the window falls entirely off the mailbox.
func ComputeWindow(total, limit, offset uint32) (Window, bool) {
	if total == 0 {
		return Window{}, false
	}

	start := int64(total) - int64(offset) - int64(limit) + 1
	if start < 1 {
		start = 1
	}
	end := int64(total) - int64(offset)
	if end < 1 {
		end = 1
	}

	if end < start {
		return Window{}, false
	}

	return Window{Start: uint32(start), End: uint32(end)}, true
}
