// PhotoShare Subscription Example
//
// This is a minimal example of how to consume the PhotoShare event streams.
// It attaches to the photo and user channels and prints each event as it
// arrives.
//
// Usage:
//   export PHOTOSHARE_BASE_URL="http://localhost:8080"
//   export PHOTOSHARE_TOKEN="your_token_here"   # optional
//   go run main.go

package main

import (
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
)

// Event is one frame of a subscription stream.
type Event struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// Photo is the payload of a photo-added event.
type Photo struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	Category string `json:"category"`
	PostedBy string `json:"postedBy"`
}

// User is the payload of a user-added event.
type User struct {
	GithubLogin string `json:"githubLogin"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
}

func main() {
	baseURL := os.Getenv("PHOTOSHARE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	token := os.Getenv("PHOTOSHARE_TOKEN")

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go stream(baseURL, "/api/subscriptions/photos", token, handlePhoto)
	go stream(baseURL, "/api/subscriptions/users", token, handleUser)

	log.Println("Listening for photo and user events, Ctrl-C to stop")
	<-done
}

func stream(baseURL, path, token string, handle func(json.RawMessage)) {
	wsURL, err := streamURL(baseURL, path, token)
	if err != nil {
		log.Fatalf("Bad base URL: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("Dial %s: %v", path, err)
	}
	defer conn.Close()

	log.Printf("Connected to %s", path)

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			log.Printf("Stream %s closed: %v", path, err)
			return
		}
		handle(ev.Data)
	}
}

func handlePhoto(data json.RawMessage) {
	var photo Photo
	if err := json.Unmarshal(data, &photo); err != nil {
		log.Printf("Error parsing photo event: %v", err)
		return
	}
	log.Printf("✓ New photo %q by %s", photo.Name, photo.PostedBy)
	log.Printf("  ID:       %s", photo.ID)
	log.Printf("  URL:      %s", photo.URL)
	log.Printf("  Category: %s", photo.Category)
}

func handleUser(data json.RawMessage) {
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		log.Printf("Error parsing user event: %v", err)
		return
	}
	log.Printf("✓ New user %s (%s)", user.GithubLogin, user.Name)
}

// streamURL converts the HTTP base URL to its WebSocket form. The token
// travels as a query parameter because browser WebSocket clients cannot set
// headers, and this example matches that convention.
func streamURL(baseURL, path, token string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + path)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if token != "" {
		q := u.Query()
		q.Set("access_token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
