package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 错误分层（见各模块）：
//   - 引擎错误：ARTIFACTS_NOT_LOADED（进程级，重启恢复）、NOT_FOUND（种子不在行映射中）
//   - 请求错误：INVALID_INPUT（query 与 seed 互斥违例）
//   - 会话错误：EMPTY_POOL（候选全部已看过，由会话机内部降级为随机，不外抛）
//   - 存储错误：NOT_FOUND、NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "engine", "store", "session"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"            // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"        // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"          // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"        // 输入无效
	ErrorCodeNotLoaded     = "ARTIFACTS_NOT_LOADED" // 工件未加载
	ErrorCodeEmptyPool     = "EMPTY_POOL"           // 候选池为空
	ErrorCodeInternalError = "INTERNAL_ERROR"       // 内部错误
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleCatalog = "catalog" // 目录读写模块
	ModuleEngine  = "engine"  // 推荐引擎模块
	ModuleSession = "session" // 会话模块
	ModuleServer  = "server"  // 服务模块
)

// 预定义错误

var (
	// ErrArtifactsNotLoaded 表示推理调用发生在工件加载之前。
	// 启动期出现视为致命；运行期只能通过重启恢复。
	ErrArtifactsNotLoaded = NewDomainError(ModuleEngine, ErrorCodeNotLoaded, "engine: artifacts not loaded")

	// ErrSeedNotFound 表示种子 ID 不在行映射中（404 级错误）。
	ErrSeedNotFound = NewDomainError(ModuleEngine, ErrorCodeNotFound, "engine: seed item not found in row map")

	// ErrEmptyPool 表示过滤后候选池为空（由会话机内部降级处理，不外抛给用户）。
	ErrEmptyPool = NewDomainError(ModuleSession, ErrorCodeEmptyPool, "session: candidate pool empty after filtering")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsUnavailable 检查错误是否为服务不可用（含工件未加载）
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable || domainErr.Code == ErrorCodeNotLoaded
	}
	return false
}

// IsInvalidInput 检查错误是否为请求形状错误
func IsInvalidInput(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}

// IsEmptyPool 检查错误是否为候选池为空
func IsEmptyPool(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeEmptyPool
	}
	return false
}
