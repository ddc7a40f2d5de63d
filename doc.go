// Package ytq is a local, append-friendly "watch later" queue for YouTube.
//
// It keeps four kinds of data in one directory:
//
//   - queue.json: the ordered queue of videos
//   - metadata.json: titles, channels and durations fetched from the API
//   - categories.json: the YouTube category ID -> name table
//   - history/YYYY-MM.jsonl: an append-only log of every queue transition
//
// Several ytq processes may share the directory. Writers serialise on an
// advisory lock (ytq.lock); readers take a shared lock. Whole-file stores
// are replaced atomically, and history events are appended with a single
// write, so an interrupted command never leaves a half-written file.
//
// # Quick Start
//
// Normalise user input to a video ID:
//
//	id, err := ytq.ExtractVideoID("https://youtu.be/dQw4w9WgXcQ")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Most programs use the command line tool in ./cli:
//
//	ytq add https://www.youtube.com/watch?v=dQw4w9WgXcQ
//	ytq next
//	ytq stats --wrapped
//
// # Configuration
//
// Settings are read from config.json in the config directory, then
// overridden by the environment:
//
//  1. Environment variables (highest priority)
//  2. config.json ($YTQ_HOME or the user config dir, e.g. ~/.config/ytq)
//  3. Default values: mode=queue, offline=true
//
// Environment variables:
//
//   - YTQ_HOME: put config and data in this one directory
//   - YTQ_API_KEY, YOUTUBE_API_KEY: YouTube Data API v3 key
//   - YTQ_MODE: queue or stack
//   - YTQ_OFFLINE: true or false
//
// A .env file in the config directory is loaded first.
//
// # Error Handling
//
// Checking for sentinel errors:
//
//	if errors.Is(err, ytq.ErrEmptyQueue) {
//		fmt.Println("Nothing to watch")
//	}
//
// Extracting rejection details:
//
//	var rej *ytq.RejectionError
//	if errors.As(err, &rej) {
//		fmt.Printf("%s input rejected: %s\n", rej.Kind, rej.Reason)
//	}
package ytq
