package main

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

func newClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")
}

// checkStatus turns non-2xx replies into errors carrying the response body.
func checkStatus(resp *resty.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}

func doGet(baseURL, path string, query map[string]string) ([]byte, error) {
	req := newClient(baseURL).R()
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	return checkStatus(req.Get(path))
}

func doPostJSON(baseURL, path string, payload interface{}) ([]byte, error) {
	return checkStatus(newClient(baseURL).R().SetBody(payload).Post(path))
}

func doPatchJSON(baseURL, path string, payload interface{}) ([]byte, error) {
	return checkStatus(newClient(baseURL).R().SetBody(payload).Patch(path))
}

func doDelete(baseURL, path string, query map[string]string) ([]byte, error) {
	req := newClient(baseURL).R()
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	return checkStatus(req.Delete(path))
}
