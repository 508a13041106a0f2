/*
Package tracker ties the audio subsystem of the Torque tracker together.

The Engine owns the song store, the mixer state, the track queues, the track
workers and the sequencer. It is constructed explicitly and passed to whoever
needs it. The realtime audio device only ever calls Engine.Process, which
touches nothing but lock-free structures.

The Model is the editor's side: every edit goes through it as a
torque.SongOperation, so that it can be undone. The GUI does not modify the song
directly; it calls the Model methods or performs Actions, e.g.
model.PlaySong().Do().

The goroutines of the tracker talk to each other through the Broker. Positions
and alerts flow from the sequencer and the MIDI monitor to the Model, and MIDI
note events flow from the MIDI driver to the Monitor.
*/
package tracker
