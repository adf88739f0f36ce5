package model

import "time"

// NewTokenEvent 导入新币时发往 MQ 的事件
type NewTokenEvent struct {
	Address    string    `json:"address"`
	Name       string    `json:"name"`
	Symbol     string    `json:"symbol"`
	MintDate   time.Time `json:"mint_date"`
	ImportDate time.Time `json:"import_date"`
}

func NewTokenEventFrom(t Token) NewTokenEvent {
	return NewTokenEvent{
		Address:    t.Address,
		Name:       t.Name,
		Symbol:     t.Symbol,
		MintDate:   t.MintDate,
		ImportDate: t.ImportDate,
	}
}
