package ircclient

import (
	"strings"
	"time"
)

// Version is sent in reply to CTCP VERSION requests.
var Version = "ircsession"

// CTCPTimeFormat is the layout used for CTCP TIME replies.
var CTCPTimeFormat = "Mon Jan 2 15:04:05 2006 MST"

// DefaultCTCPReply answers CTCP PING, TIME and VERSION requests. Any other
// request gets no reply.
func DefaultCTCPReply(request *Message) string {
	body := request.Body()
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return ""
	}

	switch strings.ToUpper(fields[0]) {
	case "PING":
		return body
	case "TIME":
		return "TIME " + time.Now().Format(CTCPTimeFormat)
	case "VERSION":
		return "VERSION " + Version
	}
	return ""
}
