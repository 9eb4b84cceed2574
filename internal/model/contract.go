package model

// DefaultContractFormat 合同编号默认格式
const DefaultContractFormat = "{Prefix}-{CName}-{Day}{Month}{Year}"

// ContractContext 生成合同编号所需字段
type ContractContext struct {
	ContractPrefix string
	ComName        string
	Day            string
	Month          string
	Year           string
	ContractFormat string
	ContractNumber string
}

// PlaceholderMap 占位符名 -> 值；键区分大小写，空值为 ""
type PlaceholderMap map[string]string

// Get 读取值，缺失返回 ""
func (m PlaceholderMap) Get(key string) string {
	return m[key]
}

// Lookup 读取值并返回是否存在
func (m PlaceholderMap) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// ContractContext 从数据源提取合同编号字段
func (m PlaceholderMap) ContractContext() ContractContext {
	return ContractContext{
		ContractPrefix: m["ContractPrefix"],
		ComName:        m["ComName"],
		Day:            m["Day"],
		Month:          m["Month"],
		Year:           m["Year"],
		ContractFormat: m["ContractFormat"],
		ContractNumber: m["ContractNumber"],
	}
}
