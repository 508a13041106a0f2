package tracker

import (
	"github.com/torque-tracker/torque"
	"github.com/torque-tracker/torque/leftright"
	"github.com/torque-tracker/torque/mixer"
	"github.com/torque-tracker/torque/worker"
)

type (
	// Sequencer plays the song: it walks the order list, and at the start of
	// every row turns the events of the row into playback commands for the
	// workers. It reads the song through its own read handle, so edits
	// published by the engine show up at the next row without any locking.
	//
	// A Sequencer is not safe for concurrent use. In realtime mode the engine
	// runs it on its own goroutine (see run), driven by the mixer ticks; in
	// offline mode the engine calls Advance directly.
	Sequencer struct {
		reader  *leftright.ReadHandle[torque.Song, torque.SongOperation]
		engine  sequencerTarget
		broker  *Broker
		playing bool
		pos     torque.SongPos
		// frames played of the current row; 0 means the row has not been
		// triggered yet
		rowFrame   int
		sampleRate int

		rowEvents []torque.ChannelEvent
		lastInstr [torque.MaxChannels]uint8
		sampleVol [torque.MaxSamples]int
	}

	// sequencerTarget is what the sequencer drives, implemented by Engine.
	sequencerTarget interface {
		send(c worker.Command) error
		sample(slot int) *torque.SampleData
		Apply(c mixer.Change)
	}

	// sequencer messages
	playFromMsg torque.SongPos
	stopMsg     struct{}
	songEnded   struct{}
)

func newSequencer(reader *leftright.ReadHandle[torque.Song, torque.SongOperation], engine sequencerTarget, broker *Broker, sampleRate int) *Sequencer {
	return &Sequencer{reader: reader, engine: engine, broker: broker, sampleRate: sampleRate}
}

// PlayFrom starts playing from the given position.
func (s *Sequencer) PlayFrom(pos torque.SongPos) {
	s.playing = true
	s.pos = pos
	s.rowFrame = 0
	s.lastInstr = [torque.MaxChannels]uint8{}
	s.reader.Read(func(song *torque.Song) {
		if !s.resolve(song) {
			s.playing = false
		}
	})
	s.report()
}

// Stop stops the sequencer and the channel tracks. The input track keeps
// playing.
func (s *Sequencer) Stop() {
	if !s.playing {
		return
	}
	s.playing = false
	for c := range torque.MaxChannels {
		s.engine.send(worker.StopPlayback{Track: torque.ChannelTrack(uint8(c))})
	}
	s.report()
}

func (s *Sequencer) Playing() bool { return s.playing }

func (s *Sequencer) Position() torque.SongPos { return s.pos }

// Advance moves the song forward by frames frames, triggering every row that
// starts within them. Rows are triggered at the start of the block they fall
// in; callers that need exact row timing split their blocks with FramesToRow.
func (s *Sequencer) Advance(frames int) {
	for frames > 0 && s.playing {
		if s.rowFrame == 0 {
			s.triggerRow()
			if !s.playing {
				return
			}
		}
		samplesPerRow := s.samplesPerRow()
		// a tempo change can leave the current row already longer than a row
		// at the new tempo; it then ends without consuming frames
		step := min(frames, max(samplesPerRow-s.rowFrame, 0))
		s.rowFrame += step
		frames -= step
		if s.rowFrame >= samplesPerRow {
			s.rowFrame = 0
			s.pos.PatternRow++
			ok := true
			s.reader.Read(func(song *torque.Song) { ok = s.resolve(song) })
			if !ok {
				s.playing = false
				TrySend(s.broker.ToModel, MsgToModel{HasPosition: true, Position: s.pos, Data: songEnded{}})
				return
			}
			s.report()
		}
	}
}

// FramesToRow returns the number of frames Advance can move before the next
// row starts, or 0 if the sequencer is stopped.
func (s *Sequencer) FramesToRow() int {
	if !s.playing {
		return 0
	}
	spr := s.samplesPerRow()
	if r := spr - s.rowFrame; r > 0 {
		return r
	}
	return spr
}

func (s *Sequencer) samplesPerRow() (n int) {
	s.reader.Read(func(song *torque.Song) {
		n = max(song.SamplesPerRow(s.sampleRate), 1)
	})
	return n
}

// resolve moves the position to the next playable row at or after it, skipping
// OrderSkip entries and rows past the end of a pattern. It returns false if
// the song ends.
func (s *Sequencer) resolve(song *torque.Song) bool {
	for range torque.MaxOrders {
		orderRow, ok := song.Order.Next(s.pos.OrderRow)
		if !ok {
			return false
		}
		if orderRow != s.pos.OrderRow {
			s.pos = torque.SongPos{OrderRow: orderRow}
		}
		p := song.Pattern(song.Order[orderRow])
		if p != nil && s.pos.PatternRow < p.Len() {
			return true
		}
		s.pos = torque.SongPos{OrderRow: orderRow + 1}
	}
	return false
}

// triggerRow copies the events of the current row out of the song and turns
// them into commands outside the read section.
func (s *Sequencer) triggerRow() {
	s.rowEvents = s.rowEvents[:0]
	ok := true
	s.reader.Read(func(song *torque.Song) {
		if ok = s.resolve(song); !ok {
			return
		}
		row := song.Patterns[song.Order[s.pos.OrderRow]].Rows[s.pos.PatternRow]
		s.rowEvents = append(s.rowEvents, row...)
		for i := range s.sampleVol {
			s.sampleVol[i] = torque.MaxVolume
			if i < len(song.Samples) && song.Samples[i].Volume > 0 {
				s.sampleVol[i] = min(song.Samples[i].Volume, torque.MaxVolume)
			}
		}
	})
	if !ok {
		s.playing = false
		return
	}
	for _, ce := range s.rowEvents {
		s.handleEvent(ce.Channel, ce.Event)
	}
}

func (s *Sequencer) handleEvent(channel uint8, e torque.Event) {
	track := torque.ChannelTrack(channel)
	if e.Mask&torque.HasInstr != 0 && e.Instr > 0 {
		s.lastInstr[channel] = e.Instr
	}
	vol, hasVol := e.Volume()
	if e.Mask&torque.HasNote != 0 {
		switch {
		case e.Note <= torque.MaxNote:
			instr := s.lastInstr[channel]
			if instr == 0 || int(instr) > torque.MaxSamples {
				break
			}
			slot := int(instr) - 1
			sample := s.engine.sample(slot)
			if sample == nil {
				break
			}
			v := s.sampleVol[slot]
			if hasVol {
				v = int(vol)
			}
			s.engine.send(worker.PlaySample{Track: track, Sample: sample, Note: e.Note, Volume: float32(v) / torque.MaxVolume})
			hasVol = false
		case e.Note == torque.NoteCut, e.Note == torque.NoteOff, e.Note == torque.NoteFade:
			s.engine.send(worker.StopPlayback{Track: track})
		}
	}
	if hasVol {
		s.engine.send(worker.VoiceVolume{Track: track, Volume: float32(vol) / torque.MaxVolume})
	}
	if pan, ok := e.Pan(); ok {
		s.engine.Apply(mixer.PanChange(track, int(pan)))
	}
}

func (s *Sequencer) report() {
	TrySend(s.broker.ToModel, MsgToModel{HasPosition: true, Position: s.pos, Playing: s.playing})
}

// run is the sequencer goroutine of a realtime engine. Every tick advances the
// song by one device buffer.
func (s *Sequencer) run(ticks <-chan struct{}, bufferSize int) {
	for {
		select {
		case <-s.broker.CloseSequencer:
			s.reader.Close()
			close(s.broker.FinishedSequencer)
			return
		case msg := <-s.broker.ToSequencer:
			switch m := msg.(type) {
			case playFromMsg:
				s.PlayFrom(torque.SongPos(m))
			case stopMsg:
				s.Stop()
			}
		case <-ticks:
			s.Advance(bufferSize)
		}
	}
}
