package stream

import (
	"strconv"
	"strings"
	"time"

	"krx-trader/internal/models"
)

// Frame discriminants. Every inbound frame carries its kind in the
// "trnm" field; frames with an unrecognized discriminant are dropped.
const (
	frameLogin = "LOGIN"
	framePing  = "PING"
	frameReg   = "REG"
	frameReal  = "REAL"
)

// frameHeader is the minimal envelope used to pick a dispatch branch.
type frameHeader struct {
	Trnm string `json:"trnm"`
}

// loginRequest is the authentication frame sent after transport open.
type loginRequest struct {
	Trnm  string `json:"trnm"`
	Token string `json:"token"`
}

// ackFrame carries the server's result for LOGIN and REG frames.
// return_code 0 means success; anything else carries a reason in
// return_msg.
type ackFrame struct {
	Trnm       string `json:"trnm"`
	ReturnCode int    `json:"return_code"`
	ReturnMsg  string `json:"return_msg"`
}

// regRequest registers real-time subscriptions for instrument codes.
type regRequest struct {
	Trnm  string   `json:"trnm"`
	GrpNo string   `json:"grp_no"`
	Codes []string `json:"item"`
}

// realFrame delivers one batch of real-time tick updates.
type realFrame struct {
	Trnm string     `json:"trnm"`
	Data []realItem `json:"data"`
}

type realItem struct {
	Code          string `json:"stk_cd"`
	Price         string `json:"cur_prc"`
	ChangePercent string `json:"flu_rt"`
	Volume        string `json:"trde_qty"`
}

// tick converts a wire item into the domain tick. Quote fields arrive
// as signed strings.
func (it realItem) tick(now time.Time) models.Tick {
	return models.Tick{
		Code:          it.Code,
		Price:         parseFloat(it.Price),
		ChangePercent: parseFloat(it.ChangePercent),
		Volume:        parseInt(it.Volume),
		Timestamp:     now,
	}
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimPrefix(s, "+"), 64)
	return v
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(strings.TrimPrefix(s, "+"), 10, 64)
	return v
}
