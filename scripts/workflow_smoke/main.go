package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type result struct {
	Step     string
	Status   int
	Want     int
	Code     string
	Duration time.Duration
	Error    error
}

type runner struct {
	client  *http.Client
	base    string
	results []result
}

func main() {
	var (
		base          string
		adminUsername string
		adminPassword string
		timeout       time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL including prefix")
	flag.StringVar(&adminUsername, "admin-username", os.Getenv("BOOTSTRAP_ADMIN_USERNAME"), "Administrator username")
	flag.StringVar(&adminPassword, "admin-password", os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"), "Administrator password")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	if adminUsername == "" || adminPassword == "" {
		log.Fatal("admin credentials are required")
	}

	r := &runner{client: &http.Client{Timeout: timeout}, base: strings.TrimRight(base, "/")}
	suffix := time.Now().UTC().Format("20060102150405")
	inspector := "smoke-inspector-" + suffix
	chassis := "SMOKE" + suffix

	var user struct {
		ID     string `json:"id"`
		Active bool   `json:"active"`
	}
	r.call("register inspector", http.MethodPost, "/auth/register", "", map[string]string{
		"username": inspector, "password": "smoke-pass", "role": "INSPECTOR",
	}, http.StatusCreated, &user)
	r.call("disabled inspector cannot log in", http.MethodPost, "/auth/login", "", map[string]string{
		"username": inspector, "password": "smoke-pass",
	}, http.StatusForbidden, nil)

	adminToken := r.login("admin login", adminUsername, adminPassword)
	r.call("activate inspector", http.MethodPatch, "/users/"+user.ID+"/status", adminToken, map[string]bool{"active": true}, http.StatusOK, nil)
	inspectorToken := r.login("inspector login", inspector, "smoke-pass")

	var record struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	r.call("create record", http.MethodPost, "/records", inspectorToken, map[string]interface{}{
		"brand": "Toyota", "type": "Camry", "model": "2020", "color": "White",
		"chassisNumber": chassis, "mileage": 40000,
	}, http.StatusCreated, &record)
	r.call("edit without grant", http.MethodPut, "/records/"+record.ID, inspectorToken, map[string]int{"mileage": 1}, http.StatusConflict, nil)

	var request struct {
		ID string `json:"id"`
	}
	r.call("request edit", http.MethodPost, "/records/"+record.ID+"/edit-requests", inspectorToken, nil, http.StatusCreated, &request)
	r.call("second request rejected", http.MethodPost, "/records/"+record.ID+"/edit-requests", inspectorToken, nil, http.StatusConflict, nil)
	r.call("approve request", http.MethodPost, "/edit-requests/"+request.ID+"/approve", adminToken, nil, http.StatusOK, nil)
	r.call("perform edit", http.MethodPut, "/records/"+record.ID, inspectorToken, map[string]int{"mileage": 50000}, http.StatusOK, &record)
	r.call("grant is single use", http.MethodPut, "/records/"+record.ID, inspectorToken, map[string]int{"mileage": 60000}, http.StatusConflict, nil)

	var public []map[string]interface{}
	r.call("anonymous search", http.MethodGet, "/records/search?chassis_number="+url.QueryEscape(chassis), "", nil, http.StatusOK, &public)
	if record.Status != "LOCKED" {
		r.fail("record relocked", fmt.Errorf("status %q after edit", record.Status))
	}
	if len(public) != 1 {
		r.fail("anonymous search", fmt.Errorf("got %d results, want 1", len(public)))
	} else if _, leaked := public[0]["status"]; leaked {
		r.fail("anonymous search", errors.New("redacted view exposes status"))
	}

	failures := r.report()
	fmt.Printf("Failures: %d of %d steps\n", failures, len(r.results))
	if failures > 0 {
		os.Exit(1)
	}
}

func (r *runner) login(step, username, password string) string {
	var res struct {
		AccessToken string `json:"access_token"`
	}
	r.call(step, http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": password}, http.StatusOK, &res)
	return res.AccessToken
}

func (r *runner) call(step, method, path, token string, body interface{}, want int, dest interface{}) {
	res := result{Step: step, Want: want}
	defer func() { r.results = append(r.results, res) }()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			res.Error = err
			return
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, r.base+path, reader)
	if err != nil {
		res.Error = err
		return
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		res.Error = err
		return
	}
	defer resp.Body.Close()
	res.Duration = time.Since(start)
	res.Status = resp.StatusCode

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read body: %w", err)
		return
	}
	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			res.Error = fmt.Errorf("decode envelope: %w", err)
			return
		}
	}
	if env.Error != nil {
		res.Code = env.Error.Code
	}
	if dest != nil && res.Status == want && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			res.Error = fmt.Errorf("decode data: %w", err)
		}
	}
}

func (r *runner) fail(step string, err error) {
	r.results = append(r.results, result{Step: step, Error: err})
}

func (r *runner) report() int {
	fmt.Println("Workflow Smoke Report")
	fmt.Println("=====================")
	failures := 0
	for _, res := range r.results {
		status := "OK"
		if res.Error != nil || res.Status != res.Want {
			status = "FAIL"
			failures++
		}
		fmt.Printf("[%s] %s\n", status, res.Step)
		if res.Want != 0 {
			fmt.Printf("  Status: %d (want %d) %s %s\n", res.Status, res.Want, res.Code, res.Duration)
		}
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		}
	}
	return failures
}
