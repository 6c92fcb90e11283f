package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand/v2"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

// templates are the LMS events the tester cycles through.
var templates = []domain.Event{
	{EventName: `\core\event\course_viewed`, Component: "core", Action: "viewed", Target: "course", CRUD: "r", ContextLevel: 50},
	{EventName: `\core\event\user_loggedin`, Component: "core", Action: "loggedin", Target: "user", CRUD: "r", ContextLevel: 10},
	{EventName: `\mod_choice\event\answer_created`, Component: "mod_choice", Action: "created", Target: "answer", CRUD: "c", ContextLevel: 70, Other: `a:2:{s:8:"choiceid";i:7;s:8:"optionid";i:10;}`},
	{EventName: `\mod_quiz\event\attempt_started`, Component: "mod_quiz", Action: "started", Target: "attempt", CRUD: "c", ContextLevel: 70, ObjectTable: "quiz_attempts"},
	{EventName: `\assignsubmission_onlinetext\event\assessable_uploaded`, Component: "assignsubmission_onlinetext", Action: "uploaded", Target: "assessable", CRUD: "c", ContextLevel: 70},
}

func main() {
	targetURL := flag.String("url", "http://localhost:8080/ingest", "Target URL for ingestion")
	apiKey := flag.String("api-key", "supersecretkey", "API Key for authentication")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 1000, "Requests per second limit")
	batch := flag.Int("batch", 1, "Events per request; above 1 sends NDJSON")
	users := flag.Int64("users", 500, "Number of distinct user ids")
	courses := flag.Int64("courses", 20, "Number of distinct course ids")
	flag.Parse()

	log.Printf("Starting load test on %s", *targetURL)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d, Batch: %d", *concurrency, *duration, *rps, *batch)

	var (
		wg                       sync.WaitGroup
		nextID                   atomic.Int64
		successCount, errorCount atomic.Int64
	)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 100)

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 5 * time.Second}

			for {
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				var body bytes.Buffer
				enc := json.NewEncoder(&body)
				for j := 0; j < *batch; j++ {
					enc.Encode(syntheticEvent(nextID.Add(1), *users, *courses))
				}

				req, err := http.NewRequestWithContext(ctx, http.MethodPost, *targetURL, &body)
				if err != nil {
					continue
				}
				if *batch > 1 {
					req.Header.Set("Content-Type", "application/x-ndjson")
				} else {
					req.Header.Set("Content-Type", "application/json")
				}
				req.Header.Set("X-API-Key", *apiKey)

				resp, err := client.Do(req)
				if err != nil {
					errorCount.Add(1)
					continue
				}
				if resp.StatusCode == http.StatusAccepted {
					successCount.Add(int64(*batch))
				} else {
					errorCount.Add(1)
				}
				resp.Body.Close()
			}
		}()
	}

	wg.Wait()

	log.Println("Load test finished.")
	log.Printf("Events accepted: %d", successCount.Load())
	log.Printf("Failed requests: %d", errorCount.Load())
	log.Printf("Accepted events/s: %.2f", float64(successCount.Load())/duration.Seconds())
}

func syntheticEvent(id, users, courses int64) domain.Event {
	event := templates[rand.IntN(len(templates))]
	event.ID = id
	event.UserID = 2 + rand.Int64N(users)
	event.CourseID = 2 + rand.Int64N(courses)
	event.ContextInstanceID = 100 + rand.Int64N(1000)
	event.ObjectID = event.ContextInstanceID
	event.TimeCreated = time.Now().Unix()
	event.Origin = "web"
	return event
}
