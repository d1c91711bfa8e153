package parser

import (
	"fmt"

	"github.com/aledsdavies/syntaxalyser/core/types"
)

// ruleFunc maps a rule to the method that parses it
func (p *parser) ruleFunc(kind NodeKind) func() error {
	switch kind {
	case NodeStatementPart:
		return p.statementPart
	case NodeStatementList:
		return p.statementList
	case NodeStatement:
		return p.statement
	case NodeAssignmentStatement:
		return p.assignmentStatement
	case NodeAssignmentRemainder:
		return p.assignmentRemainder
	case NodeIfStatement:
		return p.ifStatement
	case NodeIfRemainder:
		return p.ifRemainder
	case NodeWhileStatement:
		return p.whileStatement
	case NodeProcedureStatement:
		return p.procedureStatement
	case NodeUntilStatement:
		return p.untilStatement
	case NodeExpression:
		return p.expression
	case NodeExpressionRemainder:
		return p.expressionRemainder
	case NodeFactor:
		return p.factor
	case NodeArgumentList:
		return p.argumentList
	case NodeCondition:
		return p.condition
	case NodeConditionRemainder:
		return p.conditionRemainder
	case NodeConditionalOperator:
		return p.conditionalOperator
	default:
		return nil
	}
}

// sequence runs steps in order and stops at the first failure
func sequence(steps ...func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// expect returns a step that accepts sym
func (p *parser) expect(sym types.Symbol) func() error {
	return func() error { return p.accept(sym) }
}

// statementPart: begin <statement list> end
func (p *parser) statementPart() error {
	return p.rule(NodeStatementPart, func() error {
		return sequence(
			p.expect(types.Begin),
			p.statementList,
			p.expect(types.End),
		)
	})
}

// statementList: <statement> { ; <statement> }
func (p *parser) statementList() error {
	return p.rule(NodeStatementList, func() error {
		if err := p.statement(); err != nil {
			return err
		}
		for p.at(types.Semicolon) {
			if err := p.accept(types.Semicolon); err != nil {
				return err
			}
			if err := p.statement(); err != nil {
				return err
			}
		}
		return nil
	})
}

// statement picks one of the five statement forms by lookahead
func (p *parser) statement() error {
	return p.rule(NodeStatement, func() error {
		switch p.next.Symbol {
		case types.Identifier:
			return p.assignmentStatement()
		case types.If:
			return p.ifStatement()
		case types.While:
			return p.whileStatement()
		case types.Call:
			return p.procedureStatement()
		case types.Do:
			return p.untilStatement()
		default:
			return p.reportError(fmt.Sprintf(
				"'identifier', '<if statement>', '<while statement>', '<procedure statement>' or '<until statement>' at line %d",
				p.next.Line), types.If, types.While, types.Call, types.Do)
		}
	})
}

// assignmentStatement: identifier := <assignment statement remainder>
func (p *parser) assignmentStatement() error {
	return p.rule(NodeAssignmentStatement, func() error {
		return sequence(
			p.expect(types.Identifier),
			p.expect(types.Becomes),
			p.assignmentRemainder,
		)
	})
}

// assignmentRemainder: stringConstant | <expression>
func (p *parser) assignmentRemainder() error {
	return p.rule(NodeAssignmentRemainder, func() error {
		if p.at(types.StringConstant) {
			return p.accept(types.StringConstant)
		}
		return p.expression()
	})
}

// ifStatement: if <condition> then <statement list> <if statement remainder> end if
func (p *parser) ifStatement() error {
	return p.rule(NodeIfStatement, func() error {
		return sequence(
			p.expect(types.If),
			p.condition,
			p.expect(types.Then),
			p.statementList,
			p.ifRemainder,
			p.expect(types.End),
			p.expect(types.If),
		)
	})
}

// ifRemainder: [ else <statement list> ]
func (p *parser) ifRemainder() error {
	return p.rule(NodeIfRemainder, func() error {
		if !p.at(types.Else) {
			return nil
		}
		return sequence(
			p.expect(types.Else),
			p.statementList,
		)
	})
}

// whileStatement: while <condition> loop <statement list> end loop
func (p *parser) whileStatement() error {
	return p.rule(NodeWhileStatement, func() error {
		return sequence(
			p.expect(types.While),
			p.condition,
			p.expect(types.Loop),
			p.statementList,
			p.expect(types.End),
			p.expect(types.Loop),
		)
	})
}

// procedureStatement: call identifier ( <argument list> )
func (p *parser) procedureStatement() error {
	return p.rule(NodeProcedureStatement, func() error {
		return sequence(
			p.expect(types.Call),
			p.expect(types.Identifier),
			p.expect(types.LeftParenthesis),
			p.argumentList,
			p.expect(types.RightParenthesis),
		)
	})
}

// untilStatement: do <statement list> until <condition>
func (p *parser) untilStatement() error {
	return p.rule(NodeUntilStatement, func() error {
		return sequence(
			p.expect(types.Do),
			p.statementList,
			p.expect(types.Until),
			p.condition,
		)
	})
}

// expression: <factor> <expression remainder>
func (p *parser) expression() error {
	return p.rule(NodeExpression, func() error {
		return sequence(
			p.factor,
			p.expressionRemainder,
		)
	})
}

// expressionRemainder takes at most one more operator and factor. It
// does not loop, so x + y + z stops after y.
func (p *parser) expressionRemainder() error {
	return p.rule(NodeExpressionRemainder, func() error {
		switch p.next.Symbol {
		case types.Plus, types.Minus, types.Times, types.Divide:
			return sequence(
				p.expect(p.next.Symbol),
				p.factor,
			)
		case types.RightParenthesis, types.Semicolon:
			return nil
		default:
			return p.reportError(fmt.Sprintf(
				"'+', '-', '*', '/', ')' or ';' at line %d", p.next.Line))
		}
	})
}

// factor: identifier | numberConstant | ( <expression> )
func (p *parser) factor() error {
	return p.rule(NodeFactor, func() error {
		switch p.next.Symbol {
		case types.Identifier:
			return p.accept(types.Identifier)
		case types.NumberConstant:
			return p.accept(types.NumberConstant)
		case types.LeftParenthesis:
			return sequence(
				p.expect(types.LeftParenthesis),
				p.expression,
				p.expect(types.RightParenthesis),
			)
		default:
			return p.reportError(fmt.Sprintf(
				"'identifier', 'numberConstant' or '(' at line %d", p.next.Line))
		}
	})
}

// argumentList: identifier [ , <argument list> ]
func (p *parser) argumentList() error {
	return p.rule(NodeArgumentList, func() error {
		if err := p.accept(types.Identifier); err != nil {
			return err
		}
		if !p.at(types.Comma) {
			return nil
		}
		return sequence(
			p.expect(types.Comma),
			p.argumentList,
		)
	})
}

// condition: identifier <conditional operator> <condition remainder>
func (p *parser) condition() error {
	return p.rule(NodeCondition, func() error {
		return sequence(
			p.expect(types.Identifier),
			p.conditionalOperator,
			p.conditionRemainder,
		)
	})
}

// conditionRemainder: identifier | numberConstant | stringConstant
func (p *parser) conditionRemainder() error {
	return p.rule(NodeConditionRemainder, func() error {
		switch p.next.Symbol {
		case types.Identifier, types.NumberConstant, types.StringConstant:
			return p.accept(p.next.Symbol)
		default:
			return p.reportError(fmt.Sprintf(
				"'identifier', 'numberConstant' or 'stringConstant' at line %d", p.next.Line))
		}
	})
}

// conditionalOperator: > | >= | = | /= | < | <=
func (p *parser) conditionalOperator() error {
	return p.rule(NodeConditionalOperator, func() error {
		switch p.next.Symbol {
		case types.GreaterThan, types.GreaterEqual, types.Equal,
			types.NotEqual, types.LessThan, types.LessEqual:
			return p.accept(p.next.Symbol)
		default:
			return p.reportError(fmt.Sprintf(
				"'>', '>=', '=', '/=', '<' or '<=' at line %d", p.next.Line))
		}
	})
}
