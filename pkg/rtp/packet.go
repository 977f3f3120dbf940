package rtp

import (
	"encoding/binary"
	"fmt"

	prtp "github.com/pion/rtp"
)

// Packet is an RTP packet split at the fixed header.
// CSRC lists, header extensions and padding are not interpreted: the
// payload is everything after the first 12 bytes.
type Packet struct {
	Header  prtp.Header
	Payload []byte
}

// Constants for RTP
const (
	FixedHeaderSize  = 12   // Fixed RTP header size in bytes
	MaxRTPPacketSize = 1500 // Maximum RTP packet size (MTU)
)

// Common payload types
const (
	PayloadTypeH264 = 96 // H.264 (dynamic)
	PayloadTypeH265 = 97 // H.265 (dynamic)
)

// NewPacket creates a version 2 packet with the given fields
func NewPacket(payloadType uint8, sequenceNumber uint16, timestamp uint32, ssrc uint32, payload []byte) *Packet {
	return &Packet{
		Header: prtp.Header{
			Version:        2,
			PayloadType:    payloadType,
			SequenceNumber: sequenceNumber,
			Timestamp:      timestamp,
			SSRC:           ssrc,
		},
		Payload: payload,
	}
}

// Unmarshal decodes the fixed header and takes the rest as payload.
// The payload aliases data.
func (p *Packet) Unmarshal(data []byte) error {
	if len(data) <= FixedHeaderSize {
		return fmt.Errorf("RTP packet too short: %d bytes (need more than %d)", len(data), FixedHeaderSize)
	}

	// First byte: V(2) + P(1) + X(1) + CC(4)
	firstByte := data[0]
	p.Header = prtp.Header{
		Version:   (firstByte >> 6) & 0x03,
		Padding:   (firstByte>>5)&0x01 == 1,
		Extension: (firstByte>>4)&0x01 == 1,
	}

	// Second byte: M(1) + PT(7)
	secondByte := data[1]
	p.Header.Marker = (secondByte>>7)&0x01 == 1
	p.Header.PayloadType = secondByte & 0x7F

	p.Header.SequenceNumber = binary.BigEndian.Uint16(data[2:4])
	p.Header.Timestamp = binary.BigEndian.Uint32(data[4:8])
	p.Header.SSRC = binary.BigEndian.Uint32(data[8:12])

	p.Payload = data[FixedHeaderSize:]
	return nil
}

// Marshal serializes the packet
func (p *Packet) Marshal() ([]byte, error) {
	totalSize := FixedHeaderSize + len(p.Payload)
	if totalSize > MaxRTPPacketSize {
		return nil, fmt.Errorf("RTP packet too large: %d bytes (max: %d)", totalSize, MaxRTPPacketSize)
	}

	header := p.Header
	header.CSRC = nil
	header.Extension = false
	header.Extensions = nil

	pkt := prtp.Packet{Header: header, Payload: p.Payload}
	return pkt.Marshal()
}

// SetMarker sets the marker bit
func (p *Packet) SetMarker(marker bool) {
	p.Header.Marker = marker
}

// String returns a string representation of the RTP packet
func (p *Packet) String() string {
	return fmt.Sprintf("RTP{V:%d PT:%d Seq:%d TS:%d SSRC:%d PayloadLen:%d}",
		p.Header.Version,
		p.Header.PayloadType,
		p.Header.SequenceNumber,
		p.Header.Timestamp,
		p.Header.SSRC,
		len(p.Payload))
}
