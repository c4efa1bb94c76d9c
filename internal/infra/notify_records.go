package infra

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"

	"golang.org/x/text/encoding/unicode"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// Action codes of FILE_NOTIFY_INFORMATION records.
const (
	fileActionAdded          = 1
	fileActionRemoved        = 2
	fileActionModified       = 3
	fileActionRenamedOldName = 4
	fileActionRenamedNewName = 5
)

// notifyHeaderSize is NextEntryOffset, Action and FileNameLength.
const notifyHeaderSize = 12

// ErrMalformedRecord means a notification buffer did not parse.
var ErrMalformedRecord = errors.New("malformed change notification record")

// RawBatch is one filled ReadDirectoryChangesW buffer holding packed
// FILE_NOTIFY_INFORMATION records.
type RawBatch struct {
	buf []byte
}

// NewRawBatch wraps the first n bytes of a notification buffer.
func NewRawBatch(buf []byte) *RawBatch {
	return &RawBatch{buf: buf}
}

// Events decodes every record in delivery order. Records decoded before a
// malformed one are returned along with the error.
func (b *RawBatch) Events() ([]domain.ChangeEvent, error) {
	var events []domain.ChangeEvent
	for ev, err := range DecodeNotifyRecords(b.buf) {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// DecodeNotifyRecords walks the NextEntryOffset chain of buf.
func DecodeNotifyRecords(buf []byte) iter.Seq2[domain.ChangeEvent, error] {
	return func(yield func(domain.ChangeEvent, error) bool) {
		utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		offset := 0
		for offset < len(buf) {
			rec := buf[offset:]
			if len(rec) < notifyHeaderSize {
				yield(domain.ChangeEvent{}, fmt.Errorf("%w: short header at offset %d", ErrMalformedRecord, offset))
				return
			}
			next := int(binary.LittleEndian.Uint32(rec[0:4]))
			action := binary.LittleEndian.Uint32(rec[4:8])
			nameLen := int(binary.LittleEndian.Uint32(rec[8:12]))

			if nameLen%2 != 0 || notifyHeaderSize+nameLen > len(rec) {
				yield(domain.ChangeEvent{}, fmt.Errorf("%w: name length %d at offset %d", ErrMalformedRecord, nameLen, offset))
				return
			}
			name, err := utf16.Bytes(rec[notifyHeaderSize : notifyHeaderSize+nameLen])
			if err != nil {
				yield(domain.ChangeEvent{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err))
				return
			}

			if !yield(domain.ChangeEvent{Action: mapFileAction(action), Filename: string(name)}, nil) {
				return
			}
			if next == 0 {
				return
			}
			if next < notifyHeaderSize {
				yield(domain.ChangeEvent{}, fmt.Errorf("%w: next offset %d at offset %d", ErrMalformedRecord, next, offset))
				return
			}
			offset += next
		}
	}
}

func mapFileAction(code uint32) domain.Action {
	switch code {
	case fileActionAdded:
		return domain.ActionCreated
	case fileActionRenamedNewName:
		return domain.ActionRenamedTo
	default:
		return domain.ActionOther
	}
}

// Ensure RawBatch implements domain.Batch.
var _ domain.Batch = (*RawBatch)(nil)
