package streamrec

import "unicode/utf8"

// MessageSize is the fixed byte length of the msg column; longer text is
// truncated at a rune boundary.
const MessageSize = 256

// Message is one row of a message table. Time is the row count of the paired
// data table when the message was recorded.
type Message struct {
	Time uint64 `rec:"time"`
	Msg  string `rec:"msg,256"`
}

var messageSchema = MustSchemaOf[Message]()

func clipMessage(text string) string {
	if len(text) <= MessageSize {
		return text
	}
	n := MessageSize
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}
