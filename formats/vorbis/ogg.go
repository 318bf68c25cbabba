// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"encoding/binary"

	"github.com/ik5/audstream/audio"
)

const (
	pageHeaderSize = 27

	flagContinued = 0x01
	flagBOS       = 0x02
	flagEOS       = 0x04
)

var capturePattern = []byte("OggS")

// crcTable is the Ogg checksum: polynomial 0x04c11db7, MSB first, zero
// initial value and no final xor.
var crcTable = func() (t [256]uint32) {
	for i := range t {
		r := uint32(i) << 24
		for range 8 {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04c11db7
			} else {
				r <<= 1
			}
		}
		t[i] = r
	}
	return t
}()

func crcUpdate(crc uint32, p []byte) uint32 {
	for _, b := range p {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}

// pageChecksum computes the checksum of a whole page with its checksum field
// taken as zero.
func pageChecksum(page []byte) uint32 {
	crc := crcUpdate(0, page[:22])
	crc = crcUpdate(crc, []byte{0, 0, 0, 0})
	return crcUpdate(crc, page[26:])
}

// packet is one complete packet. granule is the page granule position for
// the last packet completed on a page and -1 for the others.
type packet struct {
	data    []byte
	granule int64
	final   bool
}

// demuxer splits Ogg pages into the packets of one logical stream. It locks
// onto the first stream that starts in the data and ignores the others.
type demuxer struct {
	serial  uint32
	locked  bool
	eos     bool
	partial []byte
	packets []packet
	pages   int

	// granule and final describe the packet last returned by next.
	granule int64
	final   bool
}

// next pops the oldest complete packet.
func (o *demuxer) next() ([]byte, bool) {
	if len(o.packets) == 0 {
		return nil, false
	}

	p := o.packets[0]
	o.packets[0] = packet{}
	o.packets = o.packets[1:]
	o.granule, o.final = p.granule, p.final
	return p.data, true
}

// page parses the page at the start of data and returns its length. It
// returns audio.ErrNeedMoreData while the page is incomplete. Packet bytes
// are copied, so data may be reused once page returns.
func (o *demuxer) page(data []byte) (int, error) {
	if len(data) < pageHeaderSize {
		return 0, audio.ErrNeedMoreData
	}
	if !bytes.Equal(data[:4], capturePattern) {
		if o.pages == 0 {
			return 0, ErrNotOggStream
		}
		return 0, ErrLostSync
	}
	if data[4] != 0 {
		return 0, ErrUnsupportedOggVersion
	}

	segments := int(data[26])
	headerLen := pageHeaderSize + segments
	if len(data) < headerLen {
		return 0, audio.ErrNeedMoreData
	}

	lacing := data[pageHeaderSize:headerLen]
	bodyLen := 0
	for _, l := range lacing {
		bodyLen += int(l)
	}
	total := headerLen + bodyLen
	if len(data) < total {
		return 0, audio.ErrNeedMoreData
	}

	page := data[:total]
	if want := binary.LittleEndian.Uint32(page[22:26]); pageChecksum(page) != want {
		return 0, ErrBadChecksum
	}
	o.pages++

	flags := page[5]
	serial := binary.LittleEndian.Uint32(page[14:18])
	if !o.locked {
		if flags&flagBOS == 0 {
			return 0, ErrNotOggStream
		}
		o.serial = serial
		o.locked = true
	}
	if serial != o.serial || o.eos {
		return total, nil
	}

	body := page[headerLen:]
	continued := flags&flagContinued != 0
	// A continuation of a packet that was never started cannot be used.
	torn := continued && len(o.partial) == 0
	if !continued {
		o.partial = nil
	}

	queued := len(o.packets)
	start := 0
	for _, l := range lacing {
		end := start + int(l)
		o.partial = append(o.partial, body[start:end]...)
		start = end

		if l < 255 {
			if !torn && len(o.partial) > 0 {
				o.packets = append(o.packets, packet{data: o.partial, granule: -1})
			}
			o.partial = nil
			torn = false
		}
	}

	if last := len(o.packets) - 1; last >= queued {
		o.packets[last].granule = int64(binary.LittleEndian.Uint64(page[6:14]))
		o.packets[last].final = flags&flagEOS != 0
	}
	if flags&flagEOS != 0 {
		o.eos = true
		o.partial = nil
	}
	return total, nil
}
