package testinfra

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
)

func ExecuteRequest(req *http.Request, engine http.Handler) (int, string, *http.Response) {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	body, _ := ioutil.ReadAll(resp.Body)
	return resp.StatusCode, string(body), resp
}
