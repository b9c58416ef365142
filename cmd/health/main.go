package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/valyala/fasthttp"
)

// One-shot liveness probe for container health checks. Exits 0 when the
// relay answers /healthz with 200, non-zero otherwise.
func main() {
	target := flag.String("target", "http://127.0.0.1:8080/healthz", "health endpoint to probe")
	timeout := flag.Duration("timeout", 3*time.Second, "probe timeout")
	flag.Parse()

	req := fasthttp.AcquireRequest()
	res := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(res)

	req.SetRequestURI(*target)
	req.Header.SetMethod(fasthttp.MethodGet)

	c := &fasthttp.Client{}
	if err := c.DoTimeout(req, res, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}
	if res.StatusCode() != fasthttp.StatusOK {
		fmt.Fprintf(os.Stderr, "probe returned %d\n", res.StatusCode())
		os.Exit(1)
	}
	fmt.Println("ok")
}
