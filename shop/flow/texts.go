package flow

const (
	textWelcome        = "Hi! Welcome to our cosmetics shop! 💄\nWhat would you like to do today?"
	textPromotions     = "🔥 *Special offers*:\nThere are no active promotions right now. Check back later!"
	textContact        = "📞 *Contact*:\nEmail: contact@cosmetics-shop.example\nPhone: 0722 123 456"
	textChooseCategory = "Choose a category:"
	textCategoryFmt    = "Products in *%s*:"
	textCategoryEmpty  = "There are no products in *%s* yet."
	textGone           = "Sorry, this product is no longer available."
	textOutOfStock     = "Sorry, this product is out of stock."
	textAddedFmt       = "%s was added to your cart! 🛒"
	textWhatNext       = "What would you like to do next?"
	textSuggestions    = "*You may also like:*"
	textCartEmpty      = "Your cart is empty! 🛒"
	textCartTitle      = "🛒 *Your cart*:"
	textOrderTitle     = "📦 *Your order*:"
	textAskName        = "Please tell us your name:"
	textAskPhone       = "Your phone number:"
	textAskAddress     = "Delivery address:"
	textAskEmailFmt    = "Your email (optional, send %s to skip):"
	textOrderPlaced    = "Your order has been placed! 🎉 Thank you!"
	textOrderFailed    = "We ran into a problem processing your order. Please try again later."
	textOrderCancelled = "Your order has been cancelled."

	labelProducts       = "🛍️ Products"
	labelPromotions     = "🔥 Promotions"
	labelContact        = "📞 Contact"
	labelCart           = "🛒 My cart"
	labelViewCart       = "View cart"
	labelBackToMenu     = "Back to menu"
	labelBackCategories = "Back to categories"
	labelBackCategory   = "Back to category"
	labelAddToCart      = "Add to cart"
	labelCheckout       = "Checkout"
	labelConfirm        = "Confirm order"
	labelCancel         = "Cancel"
)
