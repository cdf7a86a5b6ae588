package sniffer

import (
	"encoding/json"
	"io"
)

// membershipDoc is the wire shape the default JSON parser expects:
// {"nodes": ["http://a:9200", "http://b:9200"]}.
type membershipDoc struct {
	Nodes []string `json:"nodes"`
}

// JSONMembershipParser decodes a {"nodes": [...]} document, the
// simplest possible membership wire format and the one used by the
// example command and integration tests. A real cluster's richer nodes
// info response would supply its own MembershipParser.
func JSONMembershipParser(r io.Reader) ([]string, error) {
	var doc membershipDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Nodes, nil
}
