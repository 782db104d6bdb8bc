package compactwire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// check validates length and CRC of a complete frame.
func check(data []byte) error {
	if len(data) < headerLen+crcLen {
		return fmt.Errorf("%w: frame of %d bytes", ErrLength, len(data))
	}
	length := binary.LittleEndian.Uint32(data[preambleLen:])
	if int(length) != len(data) {
		return fmt.Errorf("%w: header says %d, have %d", ErrLength, length, len(data))
	}
	body := data[preambleLen : len(data)-crcLen]
	want := binary.LittleEndian.Uint32(data[len(data)-crcLen:])
	if crc32.ChecksumIEEE(body) != want {
		return ErrCRC
	}
	return nil
}

// DecodeDataFrame parses a data frame. The payload aliases data.
func (d *DataFrame) DecodeDataFrame(data []byte) (payload []byte, sourceOffset int64, flags byte, err error) {
	d.rdr = bytes.NewReader(data)
	t, err := readPreamble(d.rdr)
	if err != nil {
		return nil, 0, 0, err
	}
	if t != TypeData {
		return nil, 0, 0, fmt.Errorf("%w: %#x is not a data frame", ErrFrameType, t)
	}
	if err := check(data); err != nil {
		return nil, 0, 0, err
	}

	var length uint32
	binary.Read(d.rdr, binary.LittleEndian, &length)
	flags, _ = d.rdr.ReadByte()
	if flags&FlagHasSourceOffset != 0 {
		if err := binary.Read(d.rdr, binary.LittleEndian, &sourceOffset); err != nil {
			return nil, 0, 0, fmt.Errorf("%w: %w", ErrLength, err)
		}
	}

	// payload = everything up to the final 4-byte CRC
	payloadStart := len(data) - d.rdr.Len()
	payloadEnd := len(data) - crcLen
	if payloadStart > payloadEnd {
		return nil, 0, 0, ErrLength
	}
	return data[payloadStart:payloadEnd], sourceOffset, flags, nil
}

// DecodeErrorFrame parses an error frame and returns code and message.
func (e *ErrorFrame) DecodeErrorFrame(data []byte) (byte, []byte, error) {
	e.rdr = bytes.NewReader(data)
	t, err := readPreamble(e.rdr)
	if err != nil {
		return 0, nil, err
	}
	if t != TypeError {
		return 0, nil, fmt.Errorf("%w: %#x is not an error frame", ErrFrameType, t)
	}
	if err := check(data); err != nil {
		return 0, nil, err
	}

	var length uint32
	binary.Read(e.rdr, binary.LittleEndian, &length)
	code, _ := e.rdr.ReadByte()
	var msgLen uint16
	if err := binary.Read(e.rdr, binary.LittleEndian, &msgLen); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrLength, err)
	}
	if int(msgLen) != e.rdr.Len()-crcLen {
		return 0, nil, fmt.Errorf("%w: message of %d bytes", ErrLength, msgLen)
	}
	msg := make([]byte, msgLen)
	e.rdr.Read(msg)
	return code, msg, nil
}
