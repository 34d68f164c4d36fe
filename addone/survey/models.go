package survey

// VersionInfo 版本横幅解析结果
type VersionInfo struct {
	Vendor  string `json:"vendor"`
	Model   string `json:"model"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Serial  string `json:"serial"`
}

// InterfaceRow 接口简表的一行
type InterfaceRow struct {
	Name      string `json:"name"`
	IPAddress string `json:"ip_address"`
	Status    string `json:"status"`
	Protocol  string `json:"protocol"`
}

// ConfigSection 运行配置的一个小节
type ConfigSection struct {
	Heading string   `json:"heading"`
	Lines   []string `json:"lines"`
}
