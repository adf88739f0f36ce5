package dexscreener

// Pair DexScreener token-pairs v1 返回的交易对
type Pair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	URL         string `json:"url"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	QuoteToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"quoteToken"`
	PriceNative string `json:"priceNative"`
	PriceUsd    string `json:"priceUsd"`
	Txns        struct {
		M5  TxnCount `json:"m5"`
		H1  TxnCount `json:"h1"`
		H6  TxnCount `json:"h6"`
		H24 TxnCount `json:"h24"`
	} `json:"txns"`
	Volume struct {
		H24 *float64 `json:"h24"`
		H6  *float64 `json:"h6"`
		H1  *float64 `json:"h1"`
		M5  *float64 `json:"m5"`
	} `json:"volume"`
	PriceChange struct {
		M5  *float64 `json:"m5"`
		H1  *float64 `json:"h1"`
		H6  *float64 `json:"h6"`
		H24 *float64 `json:"h24"`
	} `json:"priceChange"`
	Liquidity *struct {
		Usd   *float64 `json:"usd"`
		Base  float64  `json:"base"`
		Quote float64  `json:"quote"`
	} `json:"liquidity"`
	Fdv           *float64  `json:"fdv"`
	MarketCap     *float64  `json:"marketCap"`
	PairCreatedAt int64     `json:"pairCreatedAt"`
	Info          *PairInfo `json:"info"`
}

type TxnCount struct {
	Buys  int64 `json:"buys"`
	Sells int64 `json:"sells"`
}

type PairInfo struct {
	ImageURL string `json:"imageUrl"`
	Websites []struct {
		Label string `json:"label"`
		URL   string `json:"url"`
	} `json:"websites"`
	Socials []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"socials"`
}
