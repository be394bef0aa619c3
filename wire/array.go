package wire

import "github.com/lcmproject/lcmgo/errs"

// CheckLength verifies that a variable-length array field's declared size
// variable matches the actual slice length, returning a SizeMismatchError
// when it does not. Generated Encode methods call this before writing a
// variable-length array's elements.
func CheckLength(sizeVar string, declared int, actual int) error {
	if declared != actual {
		return &errs.SizeMismatchError{SizeVar: sizeVar, Expected: declared, Found: actual}
	}
	return nil
}

// maxDecodeCount bounds a decoded variable-dimension count before it is
// passed to make(): no LCM payload can carry more elements than this
// without exceeding MAX_MESSAGE_SIZE itself, so anything larger is already
// known-corrupt.
const maxDecodeCount = 1 << 28

// CheckCount validates a variable dimension's companion length field before
// it sizes a make() call. A negative count — a corrupt or hostile sender
// can put any int64 in that field, and Decode has no way to authenticate it
// — would otherwise reach make() and panic the receive goroutine; an
// absurdly large one would try to allocate more memory than any real
// message could need. Generated Decode methods call this before allocating
// a variable-length array's backing slice.
func CheckCount(sizeVar string, n int64) (int, error) {
	if n < 0 || n > maxDecodeCount {
		return 0, &errs.InvalidSizeError{Size: n}
	}
	return int(n), nil
}
