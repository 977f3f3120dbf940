package rtp

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"rtspplayer/pkg/decoder"
)

// NAL unit types that carry a fragment of a larger NAL unit.
// They are passed through unchanged: reassembly is not implemented.
const (
	nalTypeH264STAPA = 24
	nalTypeH264FUA   = 28
	nalTypeH264FUB   = 29
	nalTypeH265AP    = 48
	nalTypeH265FU    = 49
)

// Stats counts what the depacketizer did with the packets it saw
type Stats struct {
	Processed uint64 // packets turned into access units
	Short     uint64 // packets discarded for an incomplete header
	Dropped   uint64 // access units or packets dropped under backpressure
}

// Depacketizer turns RTP packets into access units for a decoder sink.
// Process works on the calling goroutine; Push hands the packet to a
// serial worker and never blocks.
type Depacketizer struct {
	codec decoder.Codec
	sink  decoder.Sink
	clock func() time.Time
	log   *slog.Logger

	queue chan []byte
	quit  chan struct{}
	done  chan struct{}
	start sync.Once
	stop  sync.Once

	processed    atomic.Uint64
	short        atomic.Uint64
	dropped      atomic.Uint64
	fragmentWarn sync.Once
}

// NewDepacketizer creates a depacketizer for a single video track
func NewDepacketizer(codec decoder.Codec, sink decoder.Sink) *Depacketizer {
	if codec == decoder.CodecUnknown {
		codec = decoder.CodecH264
	}
	return &Depacketizer{
		codec: codec,
		sink:  sink,
		clock: time.Now,
		log:   slog.Default(),
		queue: make(chan []byte, 1),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// SetClock replaces the presentation clock
func (d *Depacketizer) SetClock(clock func() time.Time) {
	d.clock = clock
}

// SetLogger replaces the logger
func (d *Depacketizer) SetLogger(logger *slog.Logger) {
	d.log = logger
}

// Start launches the serial worker
func (d *Depacketizer) Start() {
	d.start.Do(func() {
		go d.run()
	})
}

// Push queues a packet for the worker. When the worker is still busy with
// the previous packet the new one is dropped and Push returns false.
func (d *Depacketizer) Push(packet []byte) bool {
	select {
	case <-d.quit:
		return false
	default:
	}

	select {
	case d.queue <- packet:
		return true
	default:
		d.dropped.Add(1)
		return false
	}
}

// Close stops the worker and waits for it to finish the packet in hand
func (d *Depacketizer) Close() {
	d.stop.Do(func() {
		close(d.quit)
	})
	d.start.Do(func() {
		close(d.done)
	})
	<-d.done
}

// Stats returns the current counters
func (d *Depacketizer) Stats() Stats {
	return Stats{
		Processed: d.processed.Load(),
		Short:     d.short.Load(),
		Dropped:   d.dropped.Load(),
	}
}

func (d *Depacketizer) run() {
	defer close(d.done)

	for {
		select {
		case <-d.quit:
			return
		case packet := <-d.queue:
			select {
			case <-d.quit:
				return
			default:
			}
			d.Process(packet)
		}
	}
}

// Process handles one packet. Packets of 12 bytes or less are discarded
// silently. It returns true when an access unit reached the sink.
func (d *Depacketizer) Process(data []byte) bool {
	var packet Packet
	if err := packet.Unmarshal(data); err != nil {
		d.short.Add(1)
		return false
	}

	switch d.codec {
	case decoder.CodecH265:
		return d.handleH265(&packet)
	default:
		return d.handleH264(&packet)
	}
}

func (d *Depacketizer) handleH264(packet *Packet) bool {
	switch packet.Payload[0] & 0x1F {
	case nalTypeH264STAPA, nalTypeH264FUA, nalTypeH264FUB:
		d.warnFragment(packet)
	}
	return d.submit(packet)
}

func (d *Depacketizer) handleH265(packet *Packet) bool {
	switch (packet.Payload[0] >> 1) & 0x3F {
	case nalTypeH265AP, nalTypeH265FU:
		d.warnFragment(packet)
	}
	return d.submit(packet)
}

func (d *Depacketizer) submit(packet *Packet) bool {
	nalu := make([]byte, len(packet.Payload))
	copy(nalu, packet.Payload)

	au := decoder.AccessUnit{
		Codec:        d.codec,
		NALUs:        [][]byte{nalu},
		Marker:       packet.Header.Marker,
		RTPTimestamp: packet.Header.Timestamp,
	}

	if !d.sink.Submit(au, d.clock()) {
		d.dropped.Add(1)
		d.log.Debug("Access unit dropped by sink", "seq", packet.Header.SequenceNumber, "size", len(nalu))
		return false
	}

	d.processed.Add(1)
	return true
}

func (d *Depacketizer) warnFragment(packet *Packet) {
	d.fragmentWarn.Do(func() {
		d.log.Debug("Aggregated or fragmented NAL unit passed through without reassembly",
			"codec", d.codec.String(), "packet", packet.String())
	})
}
