package jupiter

// NewToken Jupiter 新币列表返回的单个代币
type NewToken struct {
	Mint              string   `json:"mint"`
	CreatedAt         string   `json:"created_at"` // unix 秒，字符串形式
	MetadataUpdatedAt int64    `json:"metadata_updated_at"`
	Name              string   `json:"name"`
	Symbol            string   `json:"symbol"`
	Decimals          int      `json:"decimals"`
	LogoURI           string   `json:"logo_uri"`
	KnownMarkets      []string `json:"known_markets"`
	MintAuthority     *string  `json:"mint_authority"`
	FreezeAuthority   *string  `json:"freeze_authority"`
}
