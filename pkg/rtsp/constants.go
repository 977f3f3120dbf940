package rtsp

// RTSP Methods
const (
	MethodOptions  = "OPTIONS"
	MethodDescribe = "DESCRIBE"
	MethodSetup    = "SETUP"
	MethodPlay     = "PLAY"
)

// RTSP Status Codes
const (
	StatusOK           = 200
	StatusUnauthorized = 401
)

// Status markers matched against raw response text
const (
	StatusTextOK           = "200 OK"
	StatusTextUnauthorized = "401 Unauthorized"
)

// RTSP Headers
const (
	HeaderAccept          = "Accept"
	HeaderAuthorization   = "Authorization"
	HeaderContentLength   = "Content-Length"
	HeaderContentType     = "Content-Type"
	HeaderCSeq            = "CSeq"
	HeaderRange           = "Range"
	HeaderSession         = "Session"
	HeaderTransport       = "Transport"
	HeaderUserAgent       = "User-Agent"
	HeaderWWWAuthenticate = "WWW-Authenticate"
)

// RTSP Version
const RTSPVersion = "RTSP/1.0"

// Client request values
const (
	UserAgent        = "RTSPClientSwift"
	ContentTypeSDP   = "application/sdp"
	SetupTrackSuffix = "/trackID=1"
	SetupTransport   = "RTP/AVP;unicast;client_port=5000-5001"
	PlayRange        = "npt=0.000-"
)

// Default Values
const (
	DefaultRTSPPort    = 554
	ResponseBufferSize = 4096 // one read per handshake response
	PacketBufferSize   = 2048 // one read per received RTP packet
)
