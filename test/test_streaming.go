package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

const baseURL = "http://localhost:8080"

type turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

type historyResponse struct {
	History []turn `json:"history"`
}

// Manual smoke test against a running server: submit, retry, undo.
func main() {
	text := flag.String("text", "I have been feeling stressed at work lately.", "message to submit")
	imagePath := flag.String("image", "", "optional image file to attach")
	flag.Parse()

	fmt.Println("🚀 Starting chat streaming test...")

	var image []byte
	if *imagePath != "" {
		data, err := os.ReadFile(*imagePath)
		if err != nil {
			log.Fatalf("Failed to read image: %v", err)
		}
		image = data
		fmt.Printf("📁 Loaded image: %s (%d bytes)\n", *imagePath, len(image))
	}

	history, err := stream("/api/v1/chat/submit", map[string]interface{}{"text": *text, "image": image})
	if err != nil {
		log.Fatalf("Submit failed: %v", err)
	}
	fmt.Printf("✅ Submit produced %d turn(s)\n", len(history))

	history, err = stream("/api/v1/chat/retry", map[string]interface{}{"history": history})
	if err != nil {
		log.Fatalf("Retry failed: %v", err)
	}
	fmt.Printf("✅ Retry produced %d turn(s)\n", len(history))

	history, err = undo(history)
	if err != nil {
		log.Fatalf("Undo failed: %v", err)
	}
	fmt.Printf("✅ Undo left %d turn(s)\n", len(history))
}

func post(path string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %v", err)
	}

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(data))
	}
	return resp, nil
}

func stream(path string, body interface{}) ([]turn, error) {
	startTime := time.Now()
	resp, err := post(path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	fmt.Printf("📤 %s (%s)\n", path, resp.Header.Get("Content-Type"))

	var last historyResponse
	snapshots := 0
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if err := json.Unmarshal(scanner.Bytes(), &last); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot: %v", err)
		}
		snapshots++
		if n := len(last.History); n > 0 {
			fmt.Printf("\r📄 %d chars", len(last.History[n-1].Assistant))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stream: %v", err)
	}

	fmt.Printf("\n⏱️  %d snapshots in %v\n", snapshots, time.Since(startTime))
	if n := len(last.History); n > 0 {
		fmt.Printf("💬 %s\n", last.History[n-1].Assistant)
	}
	return last.History, nil
}

func undo(history []turn) ([]turn, error) {
	resp, err := post("/api/v1/chat/undo", map[string]interface{}{"history": history})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}
	return out.History, nil
}
