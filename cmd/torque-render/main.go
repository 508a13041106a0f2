package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/torque-tracker/torque"
	"github.com/torque-tracker/torque/cmd"
	"github.com/torque-tracker/torque/tracker"
	"github.com/torque-tracker/torque/version"
)

// seekBuffer is an in-memory io.WriteSeeker for the wav encoder.
type seekBuffer struct {
	buf []byte
	pos int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.buf) {
		b.buf = append(b.buf, make([]byte, end-len(b.buf))...)
	}
	n := copy(b.buf[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(b.pos) + offset
	case io.SeekEnd:
		pos = int64(len(b.buf)) + offset
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative seek position %d", pos)
	}
	b.pos = int(pos)
	return pos, nil
}

func main() {
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the current working directory.")
	rawOut := flag.Bool("r", false, "Output the rendered song as .raw file. By default, saves stereo float32 buffer to disk.")
	wavOut := flag.Bool("w", false, "Output the rendered song as .wav file (default behaviour when no other output is defined).")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting .raw.")
	sampleRate := flag.Int("rate", 44100, "Sample rate of the rendered audio.")
	workers := flag.Int("workers", 1, "Number of track workers.")
	maxSeconds := flag.Int("max", 600, "Stop rendering after this many seconds even if the song has not ended.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.String())
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if !*rawOut && !*wavOut {
		*wavOut = true
	}
	process := func(filename string) error {
		output := func(extension string, contents []byte) error {
			if *stdout {
				_, err := os.Stdout.Write(contents)
				return err
			}
			_, name := filepath.Split(filename)
			dir := *directory
			if dir == "" {
				var err error
				dir, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
				}
			}
			name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
			f := filepath.Join(dir, name)
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return fmt.Errorf("could not create output directory %v: %v", dir, err)
			}
			if err := os.WriteFile(f, contents, 0644); err != nil {
				return fmt.Errorf("could not write file %v: %v", f, err)
			}
			return nil
		}
		song, err := cmd.ReadSongFile(filename)
		if err != nil {
			return err
		}
		meter := tracker.LevelMeter{SampleRate: *sampleRate, Window: 300 * time.Millisecond, Floor: -90}
		buffer, err := render(song, filepath.Dir(filename), *sampleRate, *workers, *maxSeconds, &meter)
		if err != nil {
			return err
		}
		level, peak := meter.Level(), meter.PeakLevel()
		fmt.Fprintf(os.Stderr, "%v: %d frames, level %.1f/%.1f dB, peak %.1f/%.1f dB\n", filename, len(buffer)/2, level[0], level[1], peak[0], peak[1])
		if *rawOut {
			raw, err := torque.Raw(buffer, *pcm)
			if err != nil {
				return fmt.Errorf("could not generate .raw file: %v", err)
			}
			if err := output(".raw", raw); err != nil {
				return fmt.Errorf("error outputting .raw file: %v", err)
			}
		}
		if *wavOut {
			var wav seekBuffer
			if err := torque.WriteWav(&wav, buffer, *sampleRate); err != nil {
				return fmt.Errorf("could not generate .wav file: %v", err)
			}
			if err := output(".wav", wav.buf); err != nil {
				return fmt.Errorf("error outputting .wav file: %v", err)
			}
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			jsonfiles, err := filepath.Glob(filepath.Join(param, "*.json"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not glob the path %v for json files: %v\n", param, err)
				retval = 1
				continue
			}
			ymlfiles, err := filepath.Glob(filepath.Join(param, "*.yml"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not glob the path %v for yml files: %v\n", param, err)
				retval = 1
				continue
			}
			files := append(ymlfiles, jsonfiles...)
			for _, file := range files {
				if err := process(file); err != nil {
					fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
					retval = 1
				}
			}
		} else if err := process(param); err != nil {
			fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
			retval = 1
		}
	}
	os.Exit(retval)
}

// render plays the song on an offline engine until it ends, feeding every
// rendered block to meter.
func render(song torque.Song, dir string, sampleRate, workers, maxSeconds int, meter *tracker.LevelMeter) ([]float32, error) {
	const block = 1024
	e, err := tracker.NewEngine(song, tracker.Config{SampleRate: sampleRate, BufferSize: block, Workers: workers, Offline: true}, tracker.NewBroker())
	if err != nil {
		return nil, err
	}
	defer e.Close()
	if err := cmd.LoadSongSamples(e, &song, dir); err != nil {
		fmt.Fprintf(os.Stderr, "some samples could not be loaded: %v\n", err)
	}
	e.PlayFrom(torque.SongPos{})
	var buffer []float32
	measure := func(from int) {
		if err := meter.Add(buffer[from:]); err != nil {
			fmt.Fprintf(os.Stderr, "level meter: %v at frame %d\n", err, from/2)
		}
	}
	for e.Playing() && len(buffer)/2 < maxSeconds*sampleRate {
		from := len(buffer)
		if buffer, err = e.Render(buffer, block); err != nil {
			return nil, fmt.Errorf("render failed: %v", err)
		}
		measure(from)
	}
	// let the last notes ring for a second
	from := len(buffer)
	if buffer, err = e.Render(buffer, sampleRate); err != nil {
		return nil, err
	}
	measure(from)
	return buffer, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Torque command line utility for rendering .yml/.json song files to .wav or .raw.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
