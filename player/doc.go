// SPDX-License-Identifier: EPL-2.0

// Package player controls playback of a stream through a queue-based voice.
//
// A Player moves buffers between a stream.Stream and a Voice. The owner calls
// Update in its loop:
//
//	p := player.New(s, voice)
//	p.Play()
//	for !p.Finished() {
//		if err := p.Update(); err != nil {
//			return err
//		}
//		time.Sleep(10 * time.Millisecond)
//	}
//	p.Stop()
package player
