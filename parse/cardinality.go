// Copyright (c) 2017-2021, AT&T Intellectual Property. All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package parse

// Cardinality records how many times a sub-statement may appear under its
// parent: Start is '0' or '1' (whether it is mandatory), End is '1' or 'n'
// (whether it may repeat). checkCardinality reads these two runes directly
// rather than a richer range type, matching how the RFC 6020 grammar itself
// only ever distinguishes "optional/mandatory" from "single/multiple".
type Cardinality struct {
	Start, End rune
}

// NodeCardinality is a source of cardinality overrides for a node type,
// layered on top of the built-in table in newNodeByType; it is how a
// caller's vendor extensions (configd:, opd:) declare their own
// cardinality against a statement the compiler doesn't itself recognize.
type NodeCardinality func(NodeType) map[NodeType]Cardinality

var (
	zeroOne  = Cardinality{'0', '1'}
	zeroMany = Cardinality{'0', 'n'}
	oneOne   = Cardinality{'1', '1'}
	oneMany  = Cardinality{'1', 'n'}
)

func merge(maps ...map[NodeType]Cardinality) map[NodeType]Cardinality {
	out := make(map[NodeType]Cardinality)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func withCard(c Cardinality, types ...NodeType) map[NodeType]Cardinality {
	out := make(map[NodeType]Cardinality, len(types))
	for _, t := range types {
		out[t] = c
	}
	return out
}

// descRef is legal (optionally, once) on almost every YANG statement.
var descRef = withCard(zeroOne, NodeDescription, NodeReference)

// statusDescRef adds status, legal on named, reusable definitions.
var statusDescRef = merge(descRef, withCard(zeroOne, NodeStatus))

// configdExts covers the vendor configd: extension statements that may be
// attached to any data-node-bearing statement; cardinality is permissive
// since these are metadata annotations, not structural YANG.
var configdExts = merge(
	withCard(zeroOne,
		NodeConfigdHelp, NodeConfigdValidate, NodeConfigdNormalize,
		NodeConfigdSyntax, NodeConfigdPriority, NodeConfigdAllowed,
		NodeConfigdBegin, NodeConfigdEnd, NodeConfigdCreate,
		NodeConfigdDelete, NodeConfigdUpdate, NodeConfigdSubst,
		NodeConfigdSecret, NodeConfigdErrMsg, NodeConfigdPHelp,
		NodeConfigdCallRpc, NodeConfigdGetState, NodeConfigdDeferActions),
	withCard(zeroMany, NodeConfigdMust),
)

// opdExts covers the vendor opd: annotation statements usable on any
// operational-command-bearing statement.
var opdExts = withCard(zeroOne,
	NodeOpdHelp, NodeOpdAllowed, NodeOpdOnEnter, NodeOpdPatternHelp,
	NodeOpdInherit, NodeOpdRepeatable, NodeOpdPassOpcArgs,
	NodeOpdPrivileged, NodeOpdLocal, NodeOpdSecret)

// dataDefs are the statements that instantiate a schema node wherever a
// datadefQ is legal (container/list/case/rpcio/notification/grouping
// bodies, and the top level of a module/submodule).
var dataDefs = withCard(zeroMany,
	NodeContainer, NodeLeaf, NodeLeafList, NodeList, NodeChoice,
	NodeUses, NodeAnyxml)

var commonDataNode = merge(descRef, withCard(zeroMany, NodeIfFeature),
	withCard(zeroOne, NodeWhen), configdExts)

func yangCardinality(ntype NodeType) map[NodeType]Cardinality {
	return cardinalities[ntype]
}

var cardinalities map[NodeType]map[NodeType]Cardinality

func init() {
	cardinalities = map[NodeType]map[NodeType]Cardinality{
		NodeModule: merge(descRef,
			withCard(oneOne, NodeNamespace, NodePrefix),
			withCard(zeroOne, NodeYangVersion, NodeOrganization, NodeContact),
			withCard(zeroMany, NodeImport, NodeInclude, NodeRevision,
				NodeTypedef, NodeGrouping, NodeAugment, NodeDeviation,
				NodeIdentity, NodeExtension, NodeFeature),
			withCard(zeroMany, NodeRpc, NodeNotification),
			dataDefs, opdExts,
		),
		NodeSubmodule: merge(descRef,
			withCard(oneOne, NodeBelongsTo),
			withCard(zeroOne, NodeYangVersion, NodeOrganization, NodeContact),
			withCard(zeroMany, NodeImport, NodeInclude, NodeRevision,
				NodeTypedef, NodeGrouping, NodeAugment, NodeDeviation,
				NodeIdentity, NodeExtension, NodeFeature),
			withCard(zeroMany, NodeRpc, NodeNotification),
			dataDefs, opdExts,
		),
		NodeBelongsTo: withCard(oneOne, NodePrefix),
		NodeImport:    merge(descRef, withCard(oneOne, NodePrefix), withCard(zeroOne, NodeRevisionDate)),
		NodeInclude:   merge(descRef, withCard(zeroOne, NodeRevisionDate)),
		NodeRevision:  descRef,

		NodeTypedef: merge(statusDescRef, withCard(oneOne, NodeTyp),
			withCard(zeroOne, NodeDefault, NodeUnits)),

		NodeGrouping: merge(statusDescRef,
			withCard(zeroMany, NodeTypedef, NodeGrouping),
			dataDefs, withCard(zeroMany, NodeAugment), opdExts),

		NodeContainer: merge(statusDescRef, commonDataNode,
			withCard(zeroOne, NodeConfig, NodePresence),
			withCard(zeroMany, NodeMust, NodeTypedef, NodeGrouping),
			dataDefs, opdExts),

		NodeLeaf: merge(statusDescRef, commonDataNode,
			withCard(oneOne, NodeTyp),
			withCard(zeroOne, NodeConfig, NodeDefault, NodeMandatory, NodeUnits),
			withCard(zeroMany, NodeMust), opdExts),

		NodeLeafList: merge(statusDescRef, commonDataNode,
			withCard(oneOne, NodeTyp),
			withCard(zeroOne, NodeConfig, NodeMinElements, NodeMaxElements, NodeOrderedBy, NodeUnits),
			withCard(zeroMany, NodeMust), opdExts),

		NodeList: merge(statusDescRef, commonDataNode,
			withCard(zeroOne, NodeConfig, NodeKey, NodeMinElements, NodeMaxElements, NodeOrderedBy),
			withCard(zeroMany, NodeMust, NodeUnique, NodeTypedef, NodeGrouping),
			dataDefs, opdExts),

		NodeChoice: merge(statusDescRef, commonDataNode,
			withCard(zeroOne, NodeConfig, NodeDefault, NodeMandatory),
			dataDefs, withCard(zeroMany, NodeCase), opdExts),

		NodeCase: merge(statusDescRef, commonDataNode, dataDefs, opdExts),

		NodeAnyxml: merge(statusDescRef, commonDataNode,
			withCard(zeroOne, NodeConfig, NodeMandatory),
			withCard(zeroMany, NodeMust), opdExts),

		NodeUses: merge(statusDescRef, commonDataNode,
			withCard(zeroMany, NodeRefine, NodeAugment)),

		NodeRefine: merge(descRef,
			withCard(zeroOne, NodeConfig, NodeDefault, NodeMandatory, NodePresence,
				NodeMinElements, NodeMaxElements),
			withCard(zeroMany, NodeMust)),

		NodeAugment: merge(statusDescRef,
			withCard(zeroMany, NodeIfFeature, NodeWhen),
			dataDefs, withCard(zeroMany, NodeCase)),

		NodeRpc: merge(statusDescRef,
			withCard(zeroMany, NodeIfFeature, NodeTypedef, NodeGrouping),
			withCard(zeroOne, NodeInput, NodeOutput), opdExts),

		NodeInput: merge(
			withCard(zeroMany, NodeTypedef, NodeGrouping, NodeMust), dataDefs),
		NodeOutput: merge(
			withCard(zeroMany, NodeTypedef, NodeGrouping, NodeMust), dataDefs),

		NodeNotification: merge(statusDescRef,
			withCard(zeroMany, NodeIfFeature, NodeTypedef, NodeGrouping, NodeMust),
			dataDefs, opdExts),

		NodeDeviation: merge(descRef, withCard(zeroMany, NodeDeviate,
			NodeDeviateAdd, NodeDeviateDelete, NodeDeviateReplace,
			NodeDeviateNotSupported)),

		NodeDeviateNotSupported: map[NodeType]Cardinality{},
		NodeDeviateAdd: withCard(zeroOne, NodeTyp, NodeUnits, NodeDefault,
			NodeConfig, NodeMandatory, NodeMinElements, NodeMaxElements,
			NodeMust, NodeUnique),
		NodeDeviateDelete: withCard(zeroOne, NodeTyp, NodeUnits, NodeDefault,
			NodeMust, NodeUnique),
		NodeDeviateReplace: withCard(zeroOne, NodeTyp, NodeUnits, NodeDefault,
			NodeConfig, NodeMandatory, NodeMinElements, NodeMaxElements),

		NodeIdentity: merge(statusDescRef,
			withCard(zeroMany, NodeBase, NodeIfFeature)),
		NodeExtension: merge(statusDescRef,
			withCard(zeroOne, NodeArgument)),
		NodeArgument: withCard(zeroOne, NodeYinElement),
		NodeFeature: merge(statusDescRef, withCard(zeroMany, NodeIfFeature)),

		NodeTyp: merge(
			withCard(zeroOne, NodeRange, NodeLength, NodePath,
				NodeFractionDigits, NodeRequireInstance),
			withCard(zeroMany, NodePattern, NodeEnum, NodeBit)),
		NodeRange:  merge(descRef, withCard(zeroOne, NodeErrorAppTag, NodeErrorMessage)),
		NodeLength: merge(descRef, withCard(zeroOne, NodeErrorAppTag, NodeErrorMessage)),
		NodePattern: merge(descRef, withCard(zeroOne, NodeErrorAppTag, NodeErrorMessage)),
		NodeEnum: merge(statusDescRef, withCard(zeroOne, NodeValue)),
		NodeBit:  merge(statusDescRef, withCard(zeroOne, NodePosition)),

		NodeMust: merge(descRef, withCard(zeroOne, NodeErrorAppTag, NodeErrorMessage)),
		NodeWhen: descRef,

		NodeOpdCommand: merge(statusDescRef, commonDataNode, dataDefs, opdExts),
		NodeOpdOption: merge(statusDescRef, commonDataNode,
			withCard(oneOne, NodeTyp),
			withCard(zeroOne, NodeDefault, NodeMandatory), opdExts),
		NodeOpdArgument: merge(statusDescRef, commonDataNode,
			withCard(oneOne, NodeTyp), opdExts),
	}
}
