package sniffer

import "errors"

var (
	errNoCandidates   = errors.New("sniffer: no candidate nodes available")
	errEmptySniffBody = errors.New("sniffer: empty membership response body")
	errBadSniffStatus = errors.New("sniffer: non-2xx membership response")
)
