// Package grid prints songs and patterns as plain text tracker grids. The
// layout comes from text/template files; the default templates are embedded,
// and custom ones can be loaded from a directory.
package grid

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"text/template"

	"github.com/Masterminds/sprig"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/torque-tracker/torque"
)

type (
	Printer struct {
		Template *template.Template
	}

	// PatternData is the data the pattern.txt template is executed with.
	PatternData struct {
		Index    int
		Pattern  *torque.Pattern
		Channels []uint8 // channels that have at least one event, or channel 0
	}

	// SongData is the data the song.txt template is executed with.
	SongData struct {
		Song     *torque.Song
		Patterns []PatternData
	}
)

//go:embed templates/*.txt
var templateFS embed.FS

var noteNames = [12]string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

// New returns a Printer using the default templates.
func New() (*Printer, error) {
	tmpl, err := template.New("base").Funcs(funcMap()).ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf(`could not create templates: %v`, err)
	}
	return &Printer{Template: tmpl}, nil
}

// NewFromTemplates returns a Printer using the song.txt and pattern.txt
// templates in templateDirectory.
func NewFromTemplates(templateDirectory string) (*Printer, error) {
	globPtrn := filepath.Join(templateDirectory, "*.txt")
	tmpl, err := template.New("base").Funcs(funcMap()).ParseGlob(globPtrn)
	if err != nil {
		return nil, fmt.Errorf(`could not create template based on directory "%v": %v`, templateDirectory, err)
	}
	return &Printer{Template: tmpl}, nil
}

func funcMap() template.FuncMap {
	caser := cases.Title(language.English)
	m := sprig.TxtFuncMap()
	m["title"] = caser.String
	m["cell"] = func(row torque.Row, channel uint8) string {
		for _, ce := range row {
			if ce.Channel == channel {
				return Cell(ce.Event)
			}
		}
		return Cell(torque.Event{})
	}
	m["order"] = OrderEntry
	return m
}

// Song writes the whole song: its header, order list and every pattern.
func (p *Printer) Song(w io.Writer, song *torque.Song) error {
	data := SongData{Song: song}
	for i := range song.Patterns {
		data.Patterns = append(data.Patterns, patternData(song, i))
	}
	return p.execute(w, "song.txt", &data)
}

// Pattern writes one pattern of the song.
func (p *Printer) Pattern(w io.Writer, song *torque.Song, index int) error {
	if song.Pattern(index) == nil {
		return fmt.Errorf("grid: pattern %d: %w", index, torque.ErrPatternOutOfRange)
	}
	data := patternData(song, index)
	return p.execute(w, "pattern.txt", &data)
}

func (p *Printer) execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := p.Template.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf(`could not execute template "%v": %v`, name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func patternData(song *torque.Song, index int) PatternData {
	p := &song.Patterns[index]
	var channels []uint8
	for _, row := range p.Rows {
		for _, ce := range row {
			if !slices.Contains(channels, ce.Channel) {
				channels = append(channels, ce.Channel)
			}
		}
	}
	if len(channels) == 0 {
		channels = []uint8{0}
	}
	slices.Sort(channels)
	return PatternData{Index: index, Pattern: p, Channels: channels}
}

// NoteName returns the three character name of a note, e.g. "C-5" for 60.
func NoteName(note uint8) string {
	switch {
	case note <= torque.MaxNote:
		return noteNames[note%12] + fmt.Sprint(note/12)
	case note == torque.NoteCut:
		return "^^^"
	case note == torque.NoteOff:
		return "==="
	case note == torque.NoteFade:
		return "~~~"
	}
	return "???"
}

// Cell formats an event as "C-5 01 v64 A0F"; absent fields are dots.
func Cell(e torque.Event) string {
	note, instr, volPan, command := "...", "..", "...", "..."
	if e.Mask&torque.HasNote != 0 {
		note = NoteName(e.Note)
	}
	if e.Mask&torque.HasInstr != 0 {
		instr = fmt.Sprintf("%02d", e.Instr)
	}
	if v, ok := e.Volume(); ok {
		volPan = fmt.Sprintf("v%02d", v)
	} else if p, ok := e.Pan(); ok {
		volPan = fmt.Sprintf("p%02d", int(p)+32)
	}
	if e.Mask&torque.HasCommand != 0 && e.Command >= 1 && e.Command <= 26 {
		command = fmt.Sprintf("%c%02X", 'A'+e.Command-1, e.Param)
	}
	return note + " " + instr + " " + volPan + " " + command
}

// OrderEntry formats an entry of the order list.
func OrderEntry(pattern int) string {
	switch pattern {
	case torque.OrderSkip:
		return "+++"
	case torque.OrderEnd:
		return "---"
	}
	return fmt.Sprint(pattern)
}
