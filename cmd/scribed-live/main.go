// scribed-live streams an audio file (or stdin) to the live transcription
// endpoint in fixed-duration chunks and prints segments as they arrive.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/scribed/internal/live"
	"github.com/snarg/scribed/internal/srt"
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8000", "transcription service base url")
		language = flag.String("lang", "en", "language code")
		userID   = flag.String("user", "", "user id (required)")
		input    = flag.String("in", "-", "input audio file, or - for stdin")
		byteRate = flag.Int("rate", 32000, "input byte rate (bytes of audio per second)")
		chunkMs  = flag.Int("chunk-ms", 5000, "chunk duration in milliseconds")
		srtOut   = flag.String("srt", "", "write the transcript as SRT to this file on exit")
		realtime = flag.Bool("realtime", true, "pace chunks at wall-clock speed")
		logLevel = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "scribed-live: -user is required (live transcription needs a signed-in user)")
		os.Exit(2)
	}

	var in io.Reader = os.Stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scribed-live: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chunkDur := time.Duration(*chunkMs) * time.Millisecond
	session := live.NewSession(live.Options{
		URL:      live.Endpoint(*baseURL),
		Language: *language,
		UserID:   *userID,
		Source:   live.NewReaderChunker(in, *byteRate, chunkDur, *realtime),
		Logger:   log,
	})

	if err := session.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "scribed-live: %v\n", err)
		os.Exit(1)
	}

	// Print new transcript lines as they arrive, until capture ends or the
	// user interrupts.
	printed := 0
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

capture:
	for {
		select {
		case <-ctx.Done():
			break capture
		case <-ticker.C:
			printed = printNewLines(session, printed)
			if session.State() != live.StateCapturing {
				break capture
			}
		}
	}

	// Give trailing segments for the final chunk a moment to arrive.
	time.Sleep(2 * time.Second)
	session.Stop()
	printNewLines(session, printed)

	if err := session.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "scribed-live: session error: %v\n", err)
	}

	if *srtOut != "" {
		doc := session.SRT()
		if err := os.WriteFile(*srtOut, []byte(doc), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "scribed-live: write srt: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "wrote %d cues to %s\n", len(session.Transcript()), *srtOut)
	}
}

func printNewLines(session *live.Session, printed int) int {
	segs := session.Transcript()
	for _, seg := range segs[printed:] {
		fmt.Println(srt.Line(seg))
	}
	return len(segs)
}
