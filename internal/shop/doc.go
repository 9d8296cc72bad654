// Package shop is the storefront's client core: it chooses between the
// guest cart and the server cart, applies cart mutations optimistically,
// moves the guest cart to the server on sign-in and drives checkout.
//
// Nothing here renders anything. A front end supplies a Notifier for
// user-visible notices and a Navigator for route changes.
package shop
