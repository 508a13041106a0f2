package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/torque-tracker/torque"
	"github.com/torque-tracker/torque/cmd"
	"github.com/torque-tracker/torque/oto"
	"github.com/torque-tracker/torque/sampleio"
	"github.com/torque-tracker/torque/tracker"
	"github.com/torque-tracker/torque/version"
)

var (
	defaultMidiInput = flag.String("midi-input", "", "connect MIDI input to matching device name prefix")
	monitorSample    = flag.String("monitor-sample", "", "sample file played by MIDI notes; overrides the monitor slot of the preferences")
	noPlay           = flag.Bool("n", false, "Do not start the song; only monitor MIDI input.")
	loop             = flag.Bool("l", false, "Start the song again when it ends.")
	stats            = flag.Duration("stats", 0, "Log mixer statistics at this interval.")
	versionFlag      = flag.Bool("v", false, "Print version.")
)

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.String())
		os.Exit(0)
	}
	prefs := tracker.MakePreferences()
	if prefs.YmlError != nil {
		log.Printf("ignoring invalid preferences.yml: %v", prefs.YmlError)
	}
	song := torque.NewSong()
	songDir := "."
	if a := flag.Args(); len(a) > 0 {
		var err error
		song, err = cmd.ReadSongFile(a[0])
		if err != nil {
			log.Fatal(err)
		}
		songDir = filepath.Dir(a[0])
	}
	audioContext, err := oto.NewContext(prefs.Audio.SampleRate, prefs.Audio.BufferSize)
	if err != nil {
		log.Fatalf("could not acquire oto AudioContext: %v", err)
	}
	defer audioContext.Close()
	broker := tracker.NewBroker()
	cfg := prefs.EngineConfig()
	cfg.SampleRate = audioContext.SampleRate()
	cfg.BufferSize = audioContext.BufferSize()
	engine, err := tracker.NewEngine(song, cfg, broker)
	if err != nil {
		log.Fatal(err)
	}
	if err := cmd.LoadSongSamples(engine, &song, songDir); err != nil {
		log.Printf("some samples could not be loaded: %v", err)
	}
	slot := prefs.MIDI.MonitorSample
	if *monitorSample != "" {
		s, err := sampleio.LoadFile(*monitorSample)
		if err != nil {
			log.Fatal(err)
		}
		slot = torque.MaxSamples - 1
		if err := engine.LoadSample(slot, s); err != nil {
			log.Fatalf("could not load monitor sample: %v", err)
		}
	}
	output, err := audioContext.Play(engine.Process)
	if err != nil {
		log.Fatal(err)
	}

	midiContext := cmd.NewMidiContext(broker)
	defer midiContext.Close()
	prefix := prefs.MIDI.InputPrefix
	if isFlagPassed("midi-input") {
		prefix = *defaultMidiInput
	}
	if prefix != "" || isFlagPassed("midi-input") {
		if input, err := tracker.OpenMIDIInputByPrefix(midiContext, prefix); err != nil {
			log.Print(err)
		} else {
			log.Printf("opened MIDI input %s", input)
		}
	}
	monitor := tracker.NewMonitor(engine, broker, slot)
	go monitor.Run()

	model := tracker.NewModel(engine, broker)
	if !*noPlay {
		model.PlaySong().Do()
	}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	var statsTick <-chan time.Time
	if *stats > 0 {
		ticker := time.NewTicker(*stats)
		defer ticker.Stop()
		statsTick = ticker.C
	}
run:
	for {
		select {
		case <-sig:
			break run
		case msg := <-broker.ToModel:
			wasPlaying := model.IsPlaying()
			model.ProcessMsg(msg)
			for _, a := range model.Alerts() {
				log.Print(a.Message)
			}
			if wasPlaying && !model.IsPlaying() && !*noPlay {
				if !*loop {
					break run
				}
				model.PlaySong().Do()
			}
		case <-engine.Feedback().Signal():
			for _, fb := range model.ProcessFeedback() {
				log.Printf("track %d %v at frame %d", fb.Track, fb.Reason, fb.State.Position)
			}
		case <-statsTick:
			s := engine.Stats()
			log.Printf("buffers %d, frames %d, dropouts %d, faults %d, late frames %d", s.Ticks, s.Frames, s.Dropouts, s.Faults, s.LateFrames)
		}
	}
	signal.Stop(sig)
	if err := engine.StopAll(); err != nil {
		log.Print(err)
	}
	output.Close()
	tracker.TrySend(broker.CloseMonitor, struct{}{})
	select {
	case <-broker.FinishedMonitor:
	case <-time.After(3 * time.Second):
		log.Printf("MIDI monitor did not finish in time")
	}
	engine.Close()
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Torque command line utility for playing .yml/.json song files and monitoring MIDI input.\nUsage: %s [flags] [song]\n", os.Args[0])
	flag.PrintDefaults()
}
