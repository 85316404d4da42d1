// Copyright (c) 2018-2019, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package compile

import (
	"fmt"
	"strings"

	"github.com/sdcio/yang-schema-compiler/parse"
)

type deviateProcessor interface {
	isAllowed(target, property parse.Node, ec extCard) error
	propertyAction(target, property parse.Node) error
	finalAction(target, property parse.Node) error
}

type deviateBase struct{}

func (d *deviateBase) isAllowed(target, property parse.Node, ec extCard) error {
	return nil
}
func (d *deviateBase) propertyAction(target, property parse.Node) error {
	return nil
}
func (d *deviateBase) finalAction(target, property parse.Node) error {
	return nil
}

type extCard func(target, property parse.Node) rune

func (c *Compiler) getExtCardinality() extCard {
	return func(target, property parse.Node) rune {
		switch {
		case property.Type().IsExtensionNode():
			if c.extensions == nil {
				// Extensions not usually available
				// in Unit Tests
				return 'n'
			}
			nc := c.extensions.NodeCardinality
			if nc == nil {
				return 0
			}
			ec := nc(target.Type())
			if ec == nil {
				return 0
			}
			return ec[property.Type()].End

		case property.Type() == parse.NodeUnknown:
			return 'n'
		}

		return 0
	}
}

// deviateNotSupported
//
// Nothing allowed as a sub-statement except unknown extensions
type deviateNotSupported struct {
	deviateBase
}

func (n *deviateNotSupported) isAllowed(target, property parse.Node, ec extCard) error {
	// Allow unknown extensions
	if property.Type() == parse.NodeUnknown {
		// Ignore unknown extensions
		return nil
	}
	return fmt.Errorf("Property not allowed in deviate not-supported '%s'", property.Type())

}

func (n *deviateNotSupported) finalAction(target, property parse.Node) error {
	target.MarkNotSupported()
	return nil
}

// deviateDelete
//
// Properties which can be deleted are:
//
//	units
//	must
//	unique
//	default
//	known extensions
//
// A property can only be deleted from a node using deviate
// if the property appears exactly as specified
type deviateDelete struct {
	deviateBase
}

func (n *deviateDelete) isAllowed(target, property parse.Node, ec extCard) error {
	switch property.Type() {
	case parse.NodeUnits, parse.NodeDefault,
		parse.NodeMust, parse.NodeUnique:
		return nil
	default:
		if property.Type().IsExtensionNode() || property.Type() == parse.NodeUnknown {
			return nil
		}
	}
	return fmt.Errorf("Property not allowed in deviate delete '%s'", property.Type())

}

func (n *deviateDelete) propertyAction(target, property parse.Node) error {
	if property.Type() == parse.NodeUnknown {
		return nil
	}
	ch := target.LookupChild(property.Type(), property.Name())
	if ch == nil {
		return fmt.Errorf("Property being deleted by deviation must exist [%s]", property.String())
	}
	target.ReplaceChild(ch)
	return nil
}

// deviateAdd
//
// Properties which can be added are:
//
//	must
//	unique
//
// Only if not already present:
//
//	units
//	default
//	config
//	mandatory
//	min-elements
//	max-elements
//
// Additionally:
//
//	Known extensions if cardinality allows
//
// A property can only be added to a node if the property does not already exist
// or has a cardinality greater than 1
type deviateAdd struct {
	deviateBase
}

func (n *deviateAdd) isAllowed(target, property parse.Node, ec extCard) error {
	var card rune
	switch property.Type() {
	case parse.NodeUnits, parse.NodeDefault,
		parse.NodeConfig, parse.NodeMandatory,
		parse.NodeMinElements, parse.NodeMaxElements,
		parse.NodeMust, parse.NodeUnique:

		card = target.GetCardinalityEnd(property.Type())

	default:
		card = ec(target, property)
	}

	switch card {
	case '0':
		return fmt.Errorf("Property '%s' not allowed on node of type %s\n", property.Type(), target.Type())
	case '1':
		if len(target.ChildrenByType(property.Type())) != 0 {
			return fmt.Errorf("Property being added to node already exists: %s", property.Type())
		}
	case 'n':
		return nil
	default:
		return fmt.Errorf("Property '%s' not allowed on node of type %s\n", property.Type(), target.Type())
	}
	return nil

}

func (n *deviateAdd) propertyAction(target, property parse.Node) error {
	if property.Type() != parse.NodeUnknown {
		target.AddChildren(property)
	}
	return nil
}

// deviateReplace
//
// Properties which can be replaced are:
//
//	type
//	units
//	default
//	config
//	mandatory
//	min-elements
//	max-elements
//
// A property being replaced must already be present on the node
type deviateReplace struct {
	deviateBase
}

func (n *deviateReplace) isAllowed(target, property parse.Node, ec extCard) error {
	switch property.Type() {
	case parse.NodeTyp, parse.NodeUnits, parse.NodeDefault,
		parse.NodeConfig, parse.NodeMandatory,
		parse.NodeMinElements, parse.NodeMaxElements:
		return nil

	default:
		if ec(target, property) == '1' {
			// Known extensions with cardinality '1' are allowed
			return nil
		}
		return fmt.Errorf("Property not allowed in deviate replace")
	}
}

func (n *deviateReplace) propertyAction(target, property parse.Node) error {
	if property.Type() == parse.NodeUnknown {
		// Ignore unknown extensions
		return nil
	}
	ch := target.ChildrenByType(property.Type())
	if len(ch) == 0 {
		return fmt.Errorf("Only existing proprties can be replaced by deviation")
	}
	target.ReplaceChildByType(property.Type(), property)
	return nil
}

// processDeviations applies every deviation statement declared in module.
// A deviation's target path may name a node in a different module entirely
// (the "deviation-only module" pattern, where a module consists of nothing
// but deviation statements written against someone else's schema); that
// target module need not have been the one being compiled when its own
// deviations were written, so c.savedev records, for every module that is
// the *target* of at least one deviation declared in a different module,
// which declaring modules deviated it (a module's deviations of its own
// nodes are not recorded) - a staging record a caller can inspect after compilation to see which
// modules were deviation sources for a given target, without re-walking
// every module's deviation statements.
//
// Each deviation statement is processed independently: a malformed
// deviation is latched as a semantic diagnostic and processing continues
// with the next deviation statement, rather than aborting the rest of the
// module's deviations.
func (c *Compiler) processDeviations(module *parse.Module) {

	nod := module.GetModule()

	children := nod.ChildrenByType(parse.NodeDeviation)
	for _, a := range children {
		c.processOneDeviation(nod, a)
	}
}

func (c *Compiler) processOneDeviation(nod, a parse.Node) (err error) {
	defer c.latch(a, DiagInvalidDevStmt, &err)

	applyToPath := a.ArgSchema()
	applyToPfx := applyToPath[0].Space
	applyToMod, merr := nod.GetModuleByPrefix(
		applyToPfx, c.modules, c.skipUnknown)
	if merr != nil {
		c.error(nod, merr)
	}

	allowedNodes := getAugmentableNodesForModule(applyToMod)
	applyToNode := c.getDataDescendant(
		a, allowedNodes, applyToPath, func(dst parse.Node) {})

	if applyToNode == nil {
		c.error(a, fmt.Errorf("Invalid path: %s",
			xmlPathString(applyToPath)))
	}

	if applyToMod != nod {
		c.savedev[applyToMod.Name()] = append(c.savedev[applyToMod.Name()], nod)
	}

	c.checkDeviateCollision(applyToNode, nod.Name())

	devs := a.ChildrenByType(parse.NodeDeviate)

	for _, d := range devs {
		switch d.Type() {
		case parse.NodeDeviateNotSupported:
			if len(devs) > 1 {
				c.error(a, fmt.Errorf("No other deviate statements allowed with not-supported"))
			}
			c.doDeviate(applyToNode, d, &deviateNotSupported{})

		case parse.NodeDeviateDelete:
			c.doDeviate(applyToNode, d, &deviateDelete{})

		case parse.NodeDeviateAdd:
			c.doDeviate(applyToNode, d, &deviateAdd{})

		case parse.NodeDeviateReplace:
			c.doDeviate(applyToNode, d, &deviateReplace{})
		}
	}
	if len(devs) > 0 {
		c.addDeviation(applyToNode.GetNodeModulename(applyToMod), nod.Name())
	}
	return nil
}

// checkDeviateCollision catches two conflicting deviations targeting the
// same node.  Two deviations from different modules (or two from the same
// module's own deviation-only sibling statements) may legally target the
// same node - refining disjoint properties is fine - but once a node has
// been marked not-supported no further deviation against it makes sense,
// and a second not-supported is always redundant.  c.deviatedBy records,
// per target node, the ordered list of declaring modules seen so far.
func (c *Compiler) checkDeviateCollision(target parse.Node, declaringModule string) {
	if c.deviatedBy == nil {
		c.deviatedBy = make(map[parse.Node][]string)
	}
	prior := c.deviatedBy[target]
	if target.NotSupported() && len(prior) > 0 {
		c.error(target, fmt.Errorf(
			"deviation conflict: %s already marked not-supported by %s",
			target.Name(), strings.Join(prior, ", ")))
	}
	c.deviatedBy[target] = append(prior, declaringModule)
}

func (c *Compiler) doDeviate(target, deviate parse.Node, dp deviateProcessor) {

	for _, property := range deviate.Children() {
		err := dp.isAllowed(target, property, c.getExtCardinality())
		if err != nil {
			c.error(deviate, err)
			continue
		}
		err = dp.propertyAction(target, property)
		if err != nil {
			c.error(deviate, err)
		}
	}

	dp.finalAction(target, deviate)
}
