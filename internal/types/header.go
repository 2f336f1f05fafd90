package types

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderSellerID      = "X-Seller-ID"
	HeaderAuthorization = "Authorization"
)
