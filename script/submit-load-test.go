package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"time"
)

// submission is the JSON payload of POST /api/qbxml
type submission struct {
	QBXML          string `json:"qbxml"`
	Identifier     string `json:"identifier,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// envelope is the subset of the response we track
type envelope struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	ErrorCode     string `json:"error_code,omitempty"`
}

// requestResult contains metrics for a single request
type requestResult struct {
	StatusCode   int
	ResponseTime time.Duration
	ErrorCode    string
	Err          error
}

// runStats aggregates results across all workers
type runStats struct {
	total         int
	completed     int
	statusCounts  map[int]int
	errorCodes    map[string]int
	transportErrs map[string]int
	responseTimes []time.Duration
	lock          sync.Mutex
}

// documentScenario is one qbxml shape to submit
type documentScenario struct {
	name  string
	qbxml string
}

var scenarios = []documentScenario{
	{"CustomerQuery", `<?xml version="1.0"?><QBXML><QBXMLMsgsRq onError="stopOnError"><CustomerQueryRq><MaxReturned>5</MaxReturned></CustomerQueryRq></QBXMLMsgsRq></QBXML>`},
	{"InvoiceQuery", `<?xml version="1.0"?><QBXML><QBXMLMsgsRq onError="stopOnError"><InvoiceQueryRq><MaxReturned>5</MaxReturned></InvoiceQueryRq></QBXMLMsgsRq></QBXML>`},
	{"ItemQuery", `<?xml version="1.0"?><QBXML><QBXMLMsgsRq onError="stopOnError"><ItemQueryRq><MaxReturned>5</MaxReturned></ItemQueryRq></QBXMLMsgsRq></QBXML>`},
}

func main() {
	concurrency := flag.Int("c", 5, "Number of concurrent workers")
	totalRequests := flag.Int("n", 100, "Total number of requests to make")
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the agent")
	apiKey := flag.String("key", "", "API key sent in the X-API-KEY header")
	duplicatePct := flag.Int("dup", 10, "Percent of requests reusing an earlier idempotency key")
	delayMs := flag.Int("delay", 100, "Delay between requests per worker in milliseconds")
	flag.Parse()

	fmt.Printf("Submitting %d documents with %d workers to %s\n", *totalRequests, *concurrency, *baseURL)
	fmt.Printf("Duplicate key rate: %d%%, per-worker delay: %d ms\n", *duplicatePct, *delayMs)

	stats := &runStats{
		total:         *totalRequests,
		statusCounts:  make(map[int]int),
		errorCodes:    make(map[string]int),
		transportErrs: make(map[string]int),
		responseTimes: make([]time.Duration, 0, *totalRequests),
	}

	runID := time.Now().UnixNano()
	jobs := make(chan int, *totalRequests)
	results := make(chan requestResult, *totalRequests)

	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			worker(workerID, runID, *baseURL, *apiKey, *duplicatePct, *delayMs, jobs, results)
		}(i)
	}

	go func() {
		for i := 0; i < *totalRequests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for result := range results {
			stats.lock.Lock()
			stats.completed++
			if result.Err != nil {
				stats.transportErrs[result.Err.Error()]++
			} else {
				stats.statusCounts[result.StatusCode]++
				if result.ErrorCode != "" {
					stats.errorCodes[result.ErrorCode]++
				}
			}
			stats.responseTimes = append(stats.responseTimes, result.ResponseTime)
			stats.lock.Unlock()
		}
	}()

	start := time.Now()
	wg.Wait()
	close(results)
	<-collectorDone

	printResults(stats, time.Since(start))
}

func worker(id int, runID int64, baseURL, apiKey string, duplicatePct, delayMs int,
	jobs <-chan int, results chan<- requestResult) {

	client := &http.Client{Timeout: 30 * time.Second}

	for jobID := range jobs {
		if delayMs > 0 {
			time.Sleep(time.Duration(delayMs) * time.Millisecond)
		}

		scenario := scenarios[rand.Intn(len(scenarios))]

		// A slice of the keyspace is reused so some requests hit the
		// deduplication path on purpose
		key := fmt.Sprintf("load-%d-%d-%d", runID, id, jobID)
		if rand.Intn(100) < duplicatePct && jobID > 0 {
			key = fmt.Sprintf("load-%d-%d-%d", runID, id, rand.Intn(jobID))
		}

		payload, err := json.Marshal(submission{
			QBXML:          scenario.qbxml,
			Identifier:     fmt.Sprintf("%s-%d", scenario.name, jobID),
			IdempotencyKey: key,
		})
		if err != nil {
			results <- requestResult{Err: err}
			continue
		}

		req, err := http.NewRequest(http.MethodPost, baseURL+"/api/qbxml", bytes.NewReader(payload))
		if err != nil {
			results <- requestResult{Err: err}
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		if apiKey != "" {
			req.Header.Set("X-API-KEY", apiKey)
		}

		sentAt := time.Now()
		resp, err := client.Do(req)
		elapsed := time.Since(sentAt)

		if err != nil {
			results <- requestResult{Err: err, ResponseTime: elapsed}
			continue
		}

		var env envelope
		_ = json.NewDecoder(resp.Body).Decode(&env)
		resp.Body.Close()

		results <- requestResult{
			StatusCode:   resp.StatusCode,
			ResponseTime: elapsed,
			ErrorCode:    env.ErrorCode,
		}
	}
}

func printResults(stats *runStats, total time.Duration) {
	times := stats.responseTimes
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	var sum time.Duration
	for _, t := range times {
		sum += t
	}

	fmt.Println("\n================= RESULTS =================")
	fmt.Printf("Requests:   %d in %.2fs (%.2f req/s)\n",
		stats.completed, total.Seconds(), float64(stats.completed)/total.Seconds())

	fmt.Println("\nStatus codes:")
	for code, count := range stats.statusCounts {
		fmt.Printf("  %d: %d\n", code, count)
	}

	if len(stats.errorCodes) > 0 {
		fmt.Println("\nEnvelope error codes:")
		for code, count := range stats.errorCodes {
			fmt.Printf("  %-20s: %d\n", code, count)
		}
	}

	if len(stats.transportErrs) > 0 {
		fmt.Println("\nTransport errors:")
		for msg, count := range stats.transportErrs {
			fmt.Printf("  %-40s: %d\n", msg, count)
		}
	}

	if len(times) > 0 {
		fmt.Println("\nResponse times:")
		fmt.Printf("  avg: %v  min: %v  max: %v\n",
			sum/time.Duration(len(times)), times[0], times[len(times)-1])
		fmt.Printf("  p50: %v  p90: %v  p99: %v\n",
			times[len(times)*50/100], times[len(times)*90/100], times[len(times)*99/100])
	}
	fmt.Println("===========================================")
}
