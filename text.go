package capn

// GetText returns the string held by a byte1 list p, with its trailing zero
// terminator stripped. It returns "" for a null pointer, a pointer of any
// other shape, an empty list, or a list whose last byte is not the required
// zero terminator (spec section 4.9; capn_get_text in
// original_source/c/capn.c checks m.data[m.size-1] == 0 before stripping it).
func GetText(p Ptr) string {
	if p.Type != TypeList || p.DataSize != 1 || p.Size == 0 {
		return ""
	}
	body := p.Seg.slice(p.Off, Size(p.Size))
	if body[len(body)-1] != 0 {
		return ""
	}
	return string(body[:len(body)-1])
}

// GetData returns the raw bytes of a byte1 list p, without assuming or
// stripping a terminator. It returns nil for anything but a byte1 list.
func GetData(p Ptr) []byte {
	if p.Type != TypeList || p.DataSize != 1 {
		return nil
	}
	return p.Seg.slice(p.Off, Size(p.Size))
}

// SetText allocates a byte1 list in parent's segment holding s followed by a
// zero terminator, and installs it at parent's index-th pointer slot
// (capn_set_text in original_source/c/capn.c).
func SetText(parent Ptr, index int, s string) error {
	p, err := NewString(parent.Seg, s, -1)
	if err != nil {
		return err
	}
	return SetPtr(parent, index, p)
}

// SetData allocates a byte1 list in parent's segment holding a copy of data
// (no terminator), and installs it at parent's index-th pointer slot
// (capn_set_data in original_source/c/capn.c).
func SetData(parent Ptr, index int, data []byte) error {
	p, err := NewList(parent.Seg, len(data), 1, 0)
	if err != nil {
		return err
	}
	copy(p.Seg.slice(p.Off, Size(len(data))), data)
	return SetPtr(parent, index, p)
}
