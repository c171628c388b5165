package main

// session-purge removes leftover workspace sessions from Redis. Normal
// sessions expire through their TTL; this cleans up keys written before
// TTLs were configured, plus committed sessions nobody discarded.
//
// Usage:
//   go run ./cmd/session-purge -stale-hours 48           (dry run)
//   go run ./cmd/session-purge -stale-hours 48 -apply

import (
	"context"
	"flag"
	"log"
	"time"

	"bitbucket.org/mmdatafocus/transfer_console/config"
	"bitbucket.org/mmdatafocus/transfer_console/models"
	"bitbucket.org/mmdatafocus/transfer_console/session"
)

func main() {
	staleHours := flag.Int("stale-hours", 48, "purge sessions not touched for this many hours")
	apply := flag.Bool("apply", false, "actually delete; default is a dry run")
	flag.Parse()

	connCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	config.ConnectRedisWithRetry(connCtx)
	if config.GetRedisDB() == nil {
		log.Fatal("could not reach redis")
	}

	keys, err := config.ScanRedisKeys(session.RedisKeyPattern)
	if err != nil {
		log.Fatalf("scan session keys: %v", err)
	}
	log.Printf("found %d session keys", len(keys))

	cutoff := time.Now().Add(-time.Duration(*staleHours) * time.Hour)
	var purged, kept int
	for _, key := range keys {
		var sess session.Session
		found, err := config.GetRedisObject(key, &sess)
		if err != nil {
			log.Printf("unreadable session %s: %v (purging)", key, err)
		} else if found && sess.Workspace.Status != models.WorkspaceStatusCommitted && sess.UpdatedAt.After(cutoff) {
			kept++
			continue
		}

		purged++
		if !*apply {
			log.Printf("would purge %s (status=%s updated=%s)", key, sess.Workspace.Status, sess.UpdatedAt.Format(time.RFC3339))
			continue
		}
		if err := config.RemoveRedisKey(key); err != nil {
			log.Printf("delete %s: %v", key, err)
		}
	}

	mode := "dry run"
	if *apply {
		mode = "applied"
	}
	log.Printf("done (%s): purged=%d kept=%d", mode, purged, kept)
}
