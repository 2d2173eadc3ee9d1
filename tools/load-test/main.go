package main

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	// Configuration
	url := "http://localhost:8080/api/v1/reprocess"
	contentType := "application/json"

	numEmployees := 500
	daysPerEmployee := 10
	totalRequests := numEmployees * daysPerEmployee
	concurrency := 50 // Number of concurrent requests to avoid local port exhaustion

	fmt.Printf("Starting load test: %d employees (%d days each) to %s with concurrency %d\n", numEmployees, daysPerEmployee, url, concurrency)

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency) // Semaphore to limit concurrency

	var successCount int64
	var failCount int64

	startTime := time.Now()

	for i := 0; i < numEmployees; i++ {
		wg.Add(1)
		sem <- struct{}{} // Acquire token

		// Deterministic v4-shaped IDs so repeated runs hit the same units.
		employeeID := fmt.Sprintf("00000000-0000-4000-8000-%012d", i)

		go func(empID string) {
			defer wg.Done()
			defer func() { <-sem }() // Release token

			for j := 0; j < daysPerEmployee; j++ {
				date := time.Now().AddDate(0, 0, -j).Format("2006-01-02")
				payload := []byte(fmt.Sprintf(`{"employeeId": "%s", "date": "%s"}`, empID, date))

				resp, err := http.Post(url, contentType, bytes.NewBuffer(payload))
				if err != nil {
					atomic.AddInt64(&failCount, 1)
					continue
				}

				if resp.StatusCode >= 200 && resp.StatusCode < 300 {
					atomic.AddInt64(&successCount, 1)
				} else {
					atomic.AddInt64(&failCount, 1)
				}
				resp.Body.Close()
			}
		}(employeeID)
	}

	wg.Wait()
	duration := time.Since(startTime)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", totalRequests)
	fmt.Printf("Successful:     %d\n", successCount)
	fmt.Printf("Failed:         %d\n", failCount)
	fmt.Printf("Requests/Sec:   %.2f\n", float64(totalRequests)/duration.Seconds())
}
