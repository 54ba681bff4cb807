package services

import (
	"net/http"
	"strings"

	"postpulse/internal/utils"
)

// IdentityKind 身份信号的类型，同时也是存储中的判别字段
type IdentityKind string

const (
	IdentityEmail   IdentityKind = "email"
	IdentityNetwork IdentityKind = "ip"
	IdentityClient  IdentityKind = "client"
)

// MaxClientTokenLen bounds caller-supplied tokens; longer values are ignored.
const MaxClientTokenLen = 128

// MaxEmailLen 与 identity_value 列宽一致，超长的邮箱不作为身份
const MaxEmailLen = 320

// Identity 用于去重的唯一访客身份。零值表示无法识别（NoIdentity）。
type Identity struct {
	Kind  IdentityKind
	Value string
}

func (i Identity) IsZero() bool {
	return i.Kind == "" || i.Value == ""
}

func (i Identity) String() string {
	if i.IsZero() {
		return "none"
	}
	return string(i.Kind) + ":" + i.Value
}

// Signals 从请求中提取出的全部候选信号
type Signals struct {
	// VerifiedEmail 只有在凭证校验通过时才会被填充
	VerifiedEmail string
	Header        http.Header
	RemoteAddr    string
	ClientToken   string
}

// IdentityResolver 按固定优先级选出唯一的身份信号：
// 已验证邮箱 > 网络地址 > 客户端令牌。信号之间从不合并。
type IdentityResolver struct {
	// UseRemoteAddr 是否把直连地址作为最后一个 IP 来源。
	// 部署在反向代理之后时直连地址是代理本身，应当关闭。
	UseRemoteAddr bool
}

// Resolve returns the single highest-ranked identity, or ok=false when the
// request carries nothing usable.
func (r IdentityResolver) Resolve(s Signals) (Identity, bool) {
	if email := strings.ToLower(strings.TrimSpace(s.VerifiedEmail)); email != "" && len(email) <= MaxEmailLen {
		return Identity{Kind: IdentityEmail, Value: email}, true
	}

	remote := ""
	if r.UseRemoteAddr {
		remote = s.RemoteAddr
	}
	if ip := utils.ClientIP(s.Header, remote); ip != utils.UnknownIP {
		return Identity{Kind: IdentityNetwork, Value: ip}, true
	}

	if token := strings.TrimSpace(s.ClientToken); token != "" && len(token) <= MaxClientTokenLen {
		return Identity{Kind: IdentityClient, Value: token}, true
	}

	return Identity{}, false
}
