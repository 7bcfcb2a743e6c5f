// internal/driver/cdp/script.go
package cdp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/runtime"

	"github.com/xkilldash9x/pagekit/internal/driver"
)

// findFunction resolves a locator relative to `this` (the document or an
// element). With all set it returns an array, otherwise the first match or null.
const findFunction = `function(strategy, value, all) {
	const root = this;
	const doc = root.ownerDocument || root;
	const text = (el) => (el.innerText || el.textContent || "").trim();
	let nodes;
	switch (strategy) {
	case "css":
		nodes = Array.from(root.querySelectorAll(value));
		break;
	case "id":
		nodes = Array.from(root.querySelectorAll("#" + CSS.escape(value)));
		break;
	case "name":
		nodes = Array.from(root.querySelectorAll("[name=\"" + CSS.escape(value) + "\"]"));
		break;
	case "tag":
		nodes = Array.from(root.getElementsByTagName(value));
		break;
	case "link":
		nodes = Array.from(root.querySelectorAll("a")).filter((a) => text(a) === value);
		break;
	case "partial_link":
		nodes = Array.from(root.querySelectorAll("a")).filter((a) => text(a).includes(value));
		break;
	case "xpath": {
		const snap = doc.evaluate(value, root, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		nodes = [];
		for (let i = 0; i < snap.snapshotLength; i++) {
			const n = snap.snapshotItem(i);
			if (n.nodeType === Node.ELEMENT_NODE) {
				nodes.push(n);
			}
		}
		break;
	}
	default:
		throw new Error("unknown locator strategy: " + strategy);
	}
	return all ? nodes : (nodes[0] || null);
}`

// guardedFunction wraps fn so that calling it on a detached node throws
// staleMarker instead of operating on a dead subtree.
func guardedFunction(fn string) string {
	return `function(...args) {
	if (!this.isConnected) {
		throw new Error("` + staleMarker + `");
	}
	return (` + fn + `).apply(this, args);
}`
}

// executeFunction turns a statement body that reads arguments[i] and may
// `return` into a function declaration.
func executeFunction(body string) string {
	return "function() {\n" + body + "\n}"
}

const (
	displayedFunction = `function() {
	const style = window.getComputedStyle(this);
	if (style.visibility === "hidden" || style.display === "none" || style.opacity === "0") {
		return false;
	}
	if (this.tagName === "INPUT" && this.type === "hidden") {
		return false;
	}
	const r = this.getBoundingClientRect();
	return r.width > 0 && r.height > 0;
}`

	enabledFunction  = `function() { return !this.disabled; }`
	selectedFunction = `function() { return !!(this.selected || this.checked); }`
	textFunction     = `function() { return (this.innerText !== undefined ? this.innerText : this.textContent) || ""; }`
	focusFunction    = `function() { this.focus(); }`

	attributeFunction = `function(name) {
	if (name in this && typeof this[name] !== "function" && typeof this[name] !== "object") {
		return String(this[name]);
	}
	return this.getAttribute(name);
}`

	// centerFunction scrolls the element into view and reports its center
	// in viewport coordinates.
	centerFunction = `function() {
	this.scrollIntoView({block: "center", inline: "center"});
	const r = this.getBoundingClientRect();
	return {x: r.left + r.width / 2, y: r.top + r.height / 2, width: r.width, height: r.height};
}`

	clearFunction = `function() {
	if (this.disabled || this.readOnly) {
		return false;
	}
	if (this.isContentEditable) {
		this.innerHTML = "";
	} else {
		this.value = "";
	}
	this.dispatchEvent(new Event("input", {bubbles: true}));
	this.dispatchEvent(new Event("change", {bubbles: true}));
	return true;
}`
)

// objectIDer is implemented by elements this package created.
type objectIDer interface {
	objectID() runtime.RemoteObjectID
}

// callArguments encodes args for Runtime.callFunctionOn. Elements travel by
// object id; everything else is JSON-encoded.
func callArguments(args []any) ([]*runtime.CallArgument, error) {
	out := make([]*runtime.CallArgument, 0, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case objectIDer:
			out = append(out, &runtime.CallArgument{ObjectID: v.objectID()})
		case driver.Element:
			return nil, fmt.Errorf("argument %d: element %s belongs to another driver", i, v)
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			out = append(out, &runtime.CallArgument{Value: b})
		}
	}
	return out, nil
}

// decodeResult unmarshals a by-value result into res. undefined and null
// decode as JSON null, leaving scalars untouched.
func decodeResult(obj *runtime.RemoteObject, res any) error {
	if res == nil || obj == nil {
		return nil
	}
	value := []byte(obj.Value)
	if len(value) == 0 {
		value = []byte("null")
	}
	if err := json.Unmarshal(value, res); err != nil {
		return fmt.Errorf("decoding script result of type %s: %w", obj.Type, err)
	}
	return nil
}

// isNullish reports whether a by-reference result is null or undefined.
func isNullish(obj *runtime.RemoteObject) bool {
	return obj == nil || obj.Type == runtime.TypeUndefined || obj.Subtype == runtime.SubtypeNull
}

// scriptPreview shortens a script for log fields.
func scriptPreview(script string) string {
	script = strings.Join(strings.Fields(script), " ")
	if len(script) > 80 {
		return script[:77] + "..."
	}
	return script
}
