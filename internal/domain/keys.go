package domain

// KeyPrefix namespaces every key the service writes to a shared store.
const KeyPrefix = "modelserve:"
